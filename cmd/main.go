package main

import (
	"net/http"

	"durak/config"
	"durak/internal/auth"
	"durak/internal/game/engine"
	"durak/internal/game/manager"
	"durak/internal/lobby"
	"durak/internal/middleware"
	"durak/internal/profile"
	"durak/internal/storage"
	"durak/internal/utils"
	"durak/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config.Load()
	utils.Init()

	//-------------------------------------------------------
	// 1. Redis (match queues)
	//-------------------------------------------------------
	if err := storage.InitRedis(
		config.C.Redis.Addr,
		config.C.Redis.Password,
		config.C.Redis.DB,
	); err != nil {
		utils.Error.Fatalf("Redis init failed: %v", err)
	}

	//-------------------------------------------------------
	// 2. Profiles (postgres when configured, memory otherwise)
	//-------------------------------------------------------
	var profiles profile.Repo
	if dsn := config.C.Database.DSN; dsn != "" {
		if err := storage.InitPostgres(dsn); err != nil {
			utils.Error.Fatalf("Postgres init failed: %v", err)
		}
		repo, err := profile.NewPostgresRepo(storage.DB)
		if err != nil {
			utils.Error.Fatalf("Profiles init failed: %v", err)
		}
		profiles = repo
	} else {
		profiles = profile.NewMemoryRepo()
		utils.Print.Warn("no database DSN, keeping profiles in memory")
	}

	//-------------------------------------------------------
	// 3. Gin + CORS
	//-------------------------------------------------------
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	//-------------------------------------------------------
	// 4. Hub (must start before anything broadcasts)
	//-------------------------------------------------------
	hub := websocket.NewHub()
	go hub.Run()

	//-------------------------------------------------------
	// 5. Room registry
	//-------------------------------------------------------
	engineCfg := engine.Config{
		DeckSize:      config.C.Game.DeckSize,
		HandSize:      config.C.Game.HandSize,
		TableCapacity: config.C.Game.TableCapacity,
		BotDelay:      config.C.BotDelay(),
	}
	gameMgr := manager.NewGameManager(hub, engineCfg, config.C.RoomTTL(), profiles)
	hub.OnIncoming = gameMgr.HandlePlayerMessage
	hub.OnDisconnect = gameMgr.HandleDisconnect

	//-------------------------------------------------------
	// 6. Quick match
	//-------------------------------------------------------
	repo := lobby.NewRedisRepo(storage.Rdb)
	svc := lobby.NewService(repo, 300, hub)
	svc.OnRoomReady = func(room *lobby.Room) {
		utils.Print.Info("room ready", "room", room.ID, "variant", room.Variant, "players", room.Players)
		gameMgr.EnsureRoomSized(room.ID, lobby.DeckSize(room.Variant))
	}

	//-------------------------------------------------------
	// 7. Routes
	//-------------------------------------------------------
	secret := []byte(config.C.JWT.Secret)

	authGroup := r.Group("/auth")
	{
		ah := auth.NewHandler(secret, profiles)
		authGroup.POST("/guest", ah.Guest)
	}

	authed := r.Group("/", middleware.JwtAuthMiddleware(secret))
	{
		authed.GET("/ws", websocket.ServeWS(hub))

		mh := lobby.NewHandler(svc)
		authed.POST("/match/join", mh.Join)
		authed.POST("/match/cancel", mh.Cancel)

		ph := profile.NewHandler(profiles)
		authed.GET("/profile/:id", ph.Get)
	}

	//-------------------------------------------------------
	// 8. Serve
	//-------------------------------------------------------
	utils.Print.Info("server running", "port", config.C.Server.Port)
	if err := r.Run(config.C.Server.Port); err != nil {
		utils.Error.Fatalf("server stopped: %v", err)
	}
}
