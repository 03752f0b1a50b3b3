package main

import (
	"fmt"
	"log"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/config"
	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/service"
)

// Usage example on the command line:
// > PORT=8080 DBDRIVER=sqlite DBFILE=addressbook.db GIN_MODE=release GIN_LOGGING=OFF go run main.go
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	sqlDB := service.CreateDatabase(cfg)
	service.SetupProvider(sqlDB, cfg.DBDriver)
	router := service.SetupHttpRouter()
	router.Run(fmt.Sprintf(":%d", cfg.Port))
}
