package main

import (
    "log"

    "github.com/hibiken/asynq"
    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/event-ticketing/internal/cache"
    "github.com/iliyamo/event-ticketing/internal/config"
    "github.com/iliyamo/event-ticketing/internal/database"
    "github.com/iliyamo/event-ticketing/internal/handler"
    "github.com/iliyamo/event-ticketing/internal/middleware"
    "github.com/iliyamo/event-ticketing/internal/queue"
    "github.com/iliyamo/event-ticketing/internal/repository"
    "github.com/iliyamo/event-ticketing/internal/router"
    "github.com/iliyamo/event-ticketing/internal/service"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    if err := godotenv.Load(); err != nil {
        log.Printf("no .env file loaded: %v", err)
    }
    cfg := config.Load()
    cacheCfg := config.LoadCacheConfig()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer func() { _ = db.Close() }()

    // Redis is optional: without it the browse cache falls back to the
    // in-process store and rate limiting and the worker are disabled.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Printf("redis unavailable, using in-process cache")
    }
    var browseCache cache.Cache
    if cacheCfg.Enabled {
        browseCache = cache.New(rdb, cacheCfg.Prefix)
    }

    seatRepo := repository.NewSeatRepo(db)
    holdRepo := repository.NewHoldRepo(db)
    purchaseRepo := repository.NewPurchaseRepo(db)
    waitlistRepo := repository.NewWaitlistRepo(db)
    eventRepo := repository.NewEventRepo(db)

    // No broker URL means no publisher at all; waitlist notifications
    // then flip flags without an outbound message.
    var publisher service.Publisher
    if cfg.AMQPURL != "" {
        publisher = queue.NewPublisher(cfg.AMQPURL)
    }
    waitlistSvc := service.NewWaitlistService(waitlistRepo, eventRepo, publisher, cfg.WaitlistFanout)
    reservationSvc := service.NewReservationService(seatRepo, holdRepo, eventRepo, waitlistSvc, browseCache, cfg.HoldDuration)
    checkoutSvc := service.NewCheckoutService(seatRepo, holdRepo, purchaseRepo, eventRepo, reservationSvc, waitlistSvc, browseCache)
    browseSvc := service.NewBrowseService(eventRepo, seatRepo, reservationSvc, browseCache, cacheCfg.ListTTL, cacheCfg.DetailTTL)

    // With Redis up, waitlist notification and the minutely hold sweep
    // run through asynq; otherwise notification degrades to in-process
    // goroutines and sweeps happen on demand.
    if cfg.AsynqEnabled && rdb != nil {
        redisOpt := asynq.RedisClientOpt{Addr: rdb.Options().Addr, Password: rdb.Options().Password, DB: rdb.Options().DB}
        client := asynq.NewClient(redisOpt)
        defer func() { _ = client.Close() }()
        waitlistSvc.SetEnqueuer(queue.NewDispatcher(client))
        go queue.NewWorker(waitlistSvc, reservationSvc).Run(redisOpt)
    }
    if cfg.AMQPURL != "" {
        go queue.StartWaitlistConsumer(cfg.AMQPURL)
    }

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    router.RegisterRoutes(e,
        handler.NewBrowseHandler(browseSvc, cacheCfg.DetailTTL),
        handler.NewReservationHandler(reservationSvc),
        handler.NewCheckoutHandler(checkoutSvc),
        handler.NewWaitlistHandler(waitlistSvc),
    )

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
