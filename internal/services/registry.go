package services

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService  AuthService
	ItemService  ItemService
	PhotoService PhotoService
	UserService  UserService
	AdminService AdminService
}
