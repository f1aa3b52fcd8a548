package main

// General API documentation for swaggo. Regenerate with `swag init -g cmd/modelkit/docs.go`.
//
// @title           modelkit API
// @version         1.0
// @description     HTTP command interface for a single pretrained model with typed input/output coercion.
//
// @contact.name   modelkit maintainers
// @contact.url    https://github.com/your-org/modelkit
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
