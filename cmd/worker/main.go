package main

import "cycup_backend/internal/app"

func main() {
	app.RunWorker()
}
