package docs

// @title KIT.AI API
// @version 1.0
// @description Herramientas editoriales con IA: resumen de noticias importantes, herramientas de texto y metadatos de enlaces
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email soporte@kit.ai

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey SessionToken
// @in header
// @name Authorization
