package main

import "github.com/ManShanJu-JiShan/manshanspace/internal/app"

// @title           ManShan Space API
// @version         1.0
// @description     Account backend: registration with emailed codes, login, password reset, profiles.
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
