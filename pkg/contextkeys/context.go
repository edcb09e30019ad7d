package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

// DBContextKey - ключ, по которому хранится *gorm.DB
const DBContextKey = contextKey("db")

// Ключи gin.Context, которые выставляет SessionGuard
const (
	UserIDKey       = "userID"
	SessionTokenKey = "sessionToken"
)
