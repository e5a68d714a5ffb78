package app_test

import "eshop/internal/services"

func adminInput() services.RegisterInput {
	return services.RegisterInput{Name: "Admin", Email: "admin@nintendo.com", Password: "admin123"}
}

func loginInput() services.LoginInput {
	return services.LoginInput{Email: "admin@nintendo.com", Password: "admin123"}
}
