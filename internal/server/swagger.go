package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title surfaudit API
// @version 0.1
// @description Start single-page injection audits and follow their jobs.
// @BasePath /
