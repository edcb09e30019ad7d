package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler    *AuthHandler
	ItemHandler    *ItemHandler
	ProfileHandler *ProfileHandler
	AdminHandler   *AdminHandler
	HealthHandler  *HealthHandler
}
