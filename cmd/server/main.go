package main

import (
	"context"
	"log"
	"runtime"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"backend-ticketing/internal/audit"
	"backend-ticketing/internal/config"
	httpapi "backend-ticketing/internal/http"
	"backend-ticketing/internal/http/handler"
	"backend-ticketing/internal/queue"
	"backend-ticketing/internal/rfq"
	"backend-ticketing/internal/store"
	"backend-ticketing/internal/users"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	app := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
	})

	config.LoadEnv()
	rdb := config.InitRedis()

	s := store.New(rdb)
	userStore := users.New(s)
	h := handler.New(
		queue.New(s),
		rfq.New(s),
		userStore,
		audit.New(s),
	)

	if err := userStore.EnsureDefaults(context.Background()); err != nil {
		log.Fatal("Failed to seed default users:", err)
	}

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, DELETE",
	}))

	httpapi.Register(app, h)

	addr := config.GetEnv("APP_HOST", "") + ":" + config.GetEnv("APP_PORT", "3000")
	log.Println("Server running on", addr)
	log.Fatal(app.Listen(addr))
}
