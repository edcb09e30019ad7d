// @title           CyCup API
// @version         1.0
// @description     REST API университетского маркетплейса CyCup.
// @contact.name    CyCup
// @contact.email   support@cycup.fi
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /api/v1

package main

import "cycup_backend/internal/app"

func main() {
	app.Run()
}
