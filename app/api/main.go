package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"

	"github.com/go-playground/validator/v10"
	"github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/base/database/mongoclient"
	"github.com/sgx-protocol/goapi/base/database/redisclient"
	"github.com/sgx-protocol/goapi/base/log"
	"github.com/sgx-protocol/goapi/base/metrics"
	bValidator "github.com/sgx-protocol/goapi/base/validator"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/distributor"
	"github.com/sgx-protocol/goapi/domain/token"
	"github.com/sgx-protocol/goapi/domain/tracker"
	"github.com/sgx-protocol/goapi/domain/vester"
	mmiddleware "github.com/sgx-protocol/goapi/middleware"
	"github.com/sgx-protocol/goapi/service/lpmanager"
	"github.com/sgx-protocol/goapi/service/query"
	"github.com/sgx-protocol/goapi/service/redis"
	auth_delivery "github.com/sgx-protocol/goapi/stores/auth/delivery/http"
	auth_middleware "github.com/sgx-protocol/goapi/stores/auth/delivery/http/middleware"
	auth_usecase "github.com/sgx-protocol/goapi/stores/auth/usecase"
	distributor_repository "github.com/sgx-protocol/goapi/stores/distributor/repository"
	distributor_usecase "github.com/sgx-protocol/goapi/stores/distributor/usecase"
	hc_delivery "github.com/sgx-protocol/goapi/stores/healthcheck/delivery/http"
	hc_repo "github.com/sgx-protocol/goapi/stores/healthcheck/repository"
	hc_usecase "github.com/sgx-protocol/goapi/stores/healthcheck/usecase"
	reader_delivery "github.com/sgx-protocol/goapi/stores/reader/delivery/http"
	reader_usecase "github.com/sgx-protocol/goapi/stores/reader/usecase"
	router_delivery "github.com/sgx-protocol/goapi/stores/router/delivery/http"
	router_repository "github.com/sgx-protocol/goapi/stores/router/repository"
	router_usecase "github.com/sgx-protocol/goapi/stores/router/usecase"
	token_repository "github.com/sgx-protocol/goapi/stores/token/repository"
	token_usecase "github.com/sgx-protocol/goapi/stores/token/usecase"
	tracker_repository "github.com/sgx-protocol/goapi/stores/tracker/repository"
	tracker_usecase "github.com/sgx-protocol/goapi/stores/tracker/usecase"
	vester_delivery "github.com/sgx-protocol/goapi/stores/vester/delivery/http"
	vester_repository "github.com/sgx-protocol/goapi/stores/vester/repository"
	vester_usecase "github.com/sgx-protocol/goapi/stores/vester/usecase"
)

func init() {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(`infra/configs/config.yaml`)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func addr(key string) domain.Address {
	return domain.Address(viper.GetString(key)).ToLower()
}

//	@title			SGX Earn API
//	@version		1.0
//	@description	Staking, reward distribution and vesting for the SGX protocol.

// main
//
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description				retrive token from #/auth/post_auth_sign and apply with `bearer {token}`
func main() {
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	// init mongo client
	context.Info("init mongo")
	uri := viper.GetString("mongo.uri")
	authDBName := viper.GetString("mongo.authDBName")
	dbName := viper.GetString("mongo.dbName")
	enableSSL := viper.GetBool("mongo.enableSSL")
	checkIndex := viper.GetBool("mongo.checkIndex")
	mongoClient := mongoclient.MustConnectMongoClient(uri, authDBName, dbName, enableSSL, true, 2)
	q := query.New(mongoClient, checkIndex)

	// init Redis service
	context.Info("init redis cache")
	redisCacheName := viper.GetString("redis_cache.name")
	redisCacheURI := viper.GetString("redis_cache.uri")
	redisCachePwd := viper.GetString("redis_cache.password")
	redisCachePoolMultiplier := viper.GetFloat64("redis_cache.poolMultiplier")
	redisCachePool := redisclient.MustConnectRedis(redisCacheURI, redisCachePwd, redisclient.RedisParam{
		PoolMultiplier: redisCachePoolMultiplier,
		Retry:          true,
	})
	redisCache := redis.New(redisCacheName, metrics.New(redisCacheName), &redis.Pools{
		Src: redisCachePool,
	})

	mmiddleware.SetupCache(redisCache)

	lpManager := lpmanager.NewClient(&lpmanager.ClientCfg{
		Url:        viper.GetString("lpmanager.url"),
		Apikey:     viper.GetString("lpmanager.apikey"),
		HttpClient: http.Client{},
		Timeout:    viper.GetDuration("lpmanager.timeout"),
	})

	clock := domain.SystemClock()
	registry := token.NewRegistry()

	gov := addr("staking.gov")
	routerAddr := addr("staking.router")

	sgxAddr := addr("staking.tokens.sgx")
	esSgxAddr := addr("staking.tokens.esSgx")
	bnSgxAddr := addr("staking.tokens.bnSgx")
	sgxLpAddr := addr("staking.tokens.sgxLp")
	wethAddr := addr("staking.tokens.weth")

	stakedSgxTrackerAddr := addr("staking.trackers.stakedSgx")
	bonusSgxTrackerAddr := addr("staking.trackers.bonusSgx")
	feeSgxTrackerAddr := addr("staking.trackers.feeSgx")
	feeSgxLpTrackerAddr := addr("staking.trackers.feeSgxLp")
	stakedSgxLpTrackerAddr := addr("staking.trackers.stakedSgxLp")

	stakedSgxDistAddr := addr("staking.distributors.stakedSgx")
	bonusSgxDistAddr := addr("staking.distributors.bonusSgx")
	feeSgxDistAddr := addr("staking.distributors.feeSgx")
	feeSgxLpDistAddr := addr("staking.distributors.feeSgxLp")
	stakedSgxLpDistAddr := addr("staking.distributors.stakedSgxLp")

	sgxVesterAddr := addr("staking.vesters.sgx")
	sgxLpVesterAddr := addr("staking.vesters.sgxLp")

	tokenRepo := token_repository.NewTokenRepo(q)
	distributorRepo := distributor_repository.NewDistributorRepo(q)
	trackerRepo := tracker_repository.NewTrackerRepo(q)
	vesterRepo := vester_repository.NewVesterRepo(q)
	routerRepo := router_repository.NewRouterRepo(q)

	// tokens; handler sets mirror which components custody each balance
	sgx := token_usecase.New(&token_usecase.TokenCfg{
		Repo: tokenRepo,
		Ledger: &token.Ledger{
			Address:  sgxAddr,
			Name:     "SGX",
			Symbol:   "SGX",
			Decimals: 18,
			Gov:      gov,
			Minters:  []domain.Address{gov},
			Handlers: []domain.Address{stakedSgxTrackerAddr, routerAddr},
		},
	})
	esSgx := token_usecase.New(&token_usecase.TokenCfg{
		Repo: tokenRepo,
		Ledger: &token.Ledger{
			Address:               esSgxAddr,
			Name:                  "Escrowed SGX",
			Symbol:                "esSGX",
			Decimals:              18,
			Gov:                   gov,
			InPrivateTransferMode: true,
			Minters:               []domain.Address{gov, sgxVesterAddr, sgxLpVesterAddr},
			Handlers: []domain.Address{
				routerAddr, stakedSgxTrackerAddr, stakedSgxLpTrackerAddr,
				sgxVesterAddr, sgxLpVesterAddr, stakedSgxDistAddr, stakedSgxLpDistAddr,
			},
		},
	})
	bnSgx := token_usecase.New(&token_usecase.TokenCfg{
		Repo: tokenRepo,
		Ledger: &token.Ledger{
			Address:               bnSgxAddr,
			Name:                  "Bonus SGX",
			Symbol:                "bnSGX",
			Decimals:              18,
			Gov:                   gov,
			InPrivateTransferMode: true,
			Minters:               []domain.Address{gov, routerAddr},
			Handlers:              []domain.Address{routerAddr, bonusSgxTrackerAddr, feeSgxTrackerAddr, bonusSgxDistAddr},
		},
	})
	sgxLp := token_usecase.New(&token_usecase.TokenCfg{
		Repo: tokenRepo,
		Ledger: &token.Ledger{
			Address:               sgxLpAddr,
			Name:                  "SGX LP",
			Symbol:                "SGXLP",
			Decimals:              18,
			Gov:                   gov,
			InPrivateTransferMode: true,
			Minters:               []domain.Address{gov, routerAddr},
			Handlers:              []domain.Address{routerAddr, feeSgxLpTrackerAddr},
		},
	})
	weth := token_usecase.New(&token_usecase.TokenCfg{
		Repo: tokenRepo,
		Ledger: &token.Ledger{
			Address:  wethAddr,
			Name:     "Wrapped Ether",
			Symbol:   "WETH",
			Decimals: 18,
			Gov:      gov,
			Minters:  []domain.Address{gov},
			Handlers: []domain.Address{feeSgxTrackerAddr, feeSgxLpTrackerAddr},
		},
	})

	// distributors
	stakedSgxDist := distributor_usecase.New(&distributor_usecase.DistributorCfg{
		Repo: distributorRepo, Registry: registry, Clock: clock,
		Ledger: &distributor.Ledger{
			Address: stakedSgxDistAddr, RewardToken: esSgxAddr, Tracker: stakedSgxTrackerAddr, Admin: gov,
			TokensPerInterval: viper.GetString("staking.rates.stakedSgx"),
		},
	})
	bonusSgxDist := distributor_usecase.NewBonus(&distributor_usecase.DistributorCfg{
		Repo: distributorRepo, Registry: registry, Clock: clock,
		Ledger: &distributor.Ledger{
			Address: bonusSgxDistAddr, RewardToken: bnSgxAddr, Tracker: bonusSgxTrackerAddr, Admin: gov,
			BonusMultiplierBps: viper.GetString("staking.rates.bonusMultiplierBps"),
		},
	})
	feeSgxDist := distributor_usecase.New(&distributor_usecase.DistributorCfg{
		Repo: distributorRepo, Registry: registry, Clock: clock,
		Ledger: &distributor.Ledger{
			Address: feeSgxDistAddr, RewardToken: wethAddr, Tracker: feeSgxTrackerAddr, Admin: gov,
			TokensPerInterval: viper.GetString("staking.rates.feeSgx"),
		},
	})
	feeSgxLpDist := distributor_usecase.New(&distributor_usecase.DistributorCfg{
		Repo: distributorRepo, Registry: registry, Clock: clock,
		Ledger: &distributor.Ledger{
			Address: feeSgxLpDistAddr, RewardToken: wethAddr, Tracker: feeSgxLpTrackerAddr, Admin: gov,
			TokensPerInterval: viper.GetString("staking.rates.feeSgxLp"),
		},
	})
	stakedSgxLpDist := distributor_usecase.New(&distributor_usecase.DistributorCfg{
		Repo: distributorRepo, Registry: registry, Clock: clock,
		Ledger: &distributor.Ledger{
			Address: stakedSgxLpDistAddr, RewardToken: esSgxAddr, Tracker: stakedSgxLpTrackerAddr, Admin: gov,
			TokensPerInterval: viper.GetString("staking.rates.stakedSgxLp"),
		},
	})

	// trackers; the chain is sgx/esSgx -> staked -> bonus -> fee, and
	// sgxlp -> fee lp -> staked lp
	stakedSgxTracker := tracker_usecase.New(&tracker_usecase.TrackerCfg{
		Repo: trackerRepo, Registry: registry, Distributor: stakedSgxDist,
		Ledger: &tracker.Ledger{
			Address: stakedSgxTrackerAddr, Name: "Staked SGX", Symbol: "sSGX", Gov: gov,
			DepositTokens:         []domain.Address{sgxAddr, esSgxAddr},
			Handlers:              []domain.Address{routerAddr, bonusSgxTrackerAddr},
			InPrivateTransferMode: true, InPrivateStakingMode: true,
		},
	})
	bonusSgxTracker := tracker_usecase.New(&tracker_usecase.TrackerCfg{
		Repo: trackerRepo, Registry: registry, Distributor: bonusSgxDist,
		Ledger: &tracker.Ledger{
			Address: bonusSgxTrackerAddr, Name: "Staked + Bonus SGX", Symbol: "sbSGX", Gov: gov,
			DepositTokens:         []domain.Address{stakedSgxTrackerAddr},
			Handlers:              []domain.Address{routerAddr, feeSgxTrackerAddr},
			InPrivateTransferMode: true, InPrivateStakingMode: true, InPrivateClaimingMode: true,
		},
	})
	feeSgxTracker := tracker_usecase.New(&tracker_usecase.TrackerCfg{
		Repo: trackerRepo, Registry: registry, Distributor: feeSgxDist,
		Ledger: &tracker.Ledger{
			Address: feeSgxTrackerAddr, Name: "Staked + Bonus + Fee SGX", Symbol: "sbfSGX", Gov: gov,
			DepositTokens:         []domain.Address{bonusSgxTrackerAddr, bnSgxAddr},
			Handlers:              []domain.Address{routerAddr, sgxVesterAddr},
			InPrivateTransferMode: true, InPrivateStakingMode: true,
		},
	})
	feeSgxLpTracker := tracker_usecase.New(&tracker_usecase.TrackerCfg{
		Repo: trackerRepo, Registry: registry, Distributor: feeSgxLpDist,
		Ledger: &tracker.Ledger{
			Address: feeSgxLpTrackerAddr, Name: "Fee SGXLP", Symbol: "fSGXLP", Gov: gov,
			DepositTokens:         []domain.Address{sgxLpAddr},
			Handlers:              []domain.Address{routerAddr, stakedSgxLpTrackerAddr},
			InPrivateTransferMode: true, InPrivateStakingMode: true,
		},
	})
	stakedSgxLpTracker := tracker_usecase.New(&tracker_usecase.TrackerCfg{
		Repo: trackerRepo, Registry: registry, Distributor: stakedSgxLpDist,
		Ledger: &tracker.Ledger{
			Address: stakedSgxLpTrackerAddr, Name: "Fee + Staked SGXLP", Symbol: "fsSGXLP", Gov: gov,
			DepositTokens:         []domain.Address{feeSgxLpTrackerAddr},
			Handlers:              []domain.Address{routerAddr, sgxLpVesterAddr},
			InPrivateTransferMode: true, InPrivateStakingMode: true,
		},
	})

	// rate changes fold pending rewards at the old rate first
	stakedSgxDist.SetRewardsUpdater(stakedSgxTracker)
	bonusSgxDist.SetRewardsUpdater(bonusSgxTracker)
	feeSgxDist.SetRewardsUpdater(feeSgxTracker)
	feeSgxLpDist.SetRewardsUpdater(feeSgxLpTracker)
	stakedSgxLpDist.SetRewardsUpdater(stakedSgxLpTracker)

	vestingDuration := int64(viper.GetInt("staking.vestingDuration"))
	sgxVester := vester_usecase.New(&vester_usecase.VesterCfg{
		Repo: vesterRepo, Registry: registry, Clock: clock, Tracker: stakedSgxTracker,
		Ledger: &vester.Ledger{
			Address: sgxVesterAddr, Name: "Vested SGX", Symbol: "vSGX", Gov: gov,
			VestingDuration: vestingDuration,
			EsToken:         esSgxAddr, PairToken: feeSgxTrackerAddr, ClaimableToken: sgxAddr,
			Handlers: []domain.Address{routerAddr},
		},
	})
	sgxLpVester := vester_usecase.New(&vester_usecase.VesterCfg{
		Repo: vesterRepo, Registry: registry, Clock: clock, Tracker: stakedSgxLpTracker,
		Ledger: &vester.Ledger{
			Address: sgxLpVesterAddr, Name: "Vested SGXLP", Symbol: "vSGXLP", Gov: gov,
			VestingDuration: vestingDuration,
			EsToken:         esSgxAddr, PairToken: stakedSgxLpTrackerAddr, ClaimableToken: sgxAddr,
			Handlers: []domain.Address{routerAddr},
		},
	})

	tokens := map[domain.Address]token.Token{
		sgxAddr:                sgx,
		esSgxAddr:              esSgx,
		bnSgxAddr:              bnSgx,
		sgxLpAddr:              sgxLp,
		wethAddr:               weth,
		stakedSgxTrackerAddr:   stakedSgxTracker,
		bonusSgxTrackerAddr:    bonusSgxTracker,
		feeSgxTrackerAddr:      feeSgxTracker,
		feeSgxLpTrackerAddr:    feeSgxLpTracker,
		stakedSgxLpTrackerAddr: stakedSgxLpTracker,
		sgxVesterAddr:          sgxVester,
		sgxLpVesterAddr:        sgxLpVester,
	}
	for _, t := range tokens {
		registry.Register(t)
	}

	stakingRouter := router_usecase.New(&router_usecase.RouterCfg{
		Repo: routerRepo, Registry: registry, LpManager: lpManager, Clock: clock,
		Address: routerAddr, Gov: gov,
		Sgx: sgxAddr, EsSgx: esSgxAddr, BnSgx: bnSgxAddr, SgxLp: sgxLpAddr, Weth: wethAddr,
		StakedSgxTracker: stakedSgxTracker, BonusSgxTracker: bonusSgxTracker, FeeSgxTracker: feeSgxTracker,
		FeeSgxLpTracker: feeSgxLpTracker, StakedSgxLpTracker: stakedSgxLpTracker,
		SgxVester: sgxVester, SgxLpVester: sgxLpVester,
	})

	stakingReader := reader_usecase.New(&reader_usecase.ReaderCfg{
		Registry: registry, Redis: redisCache, LpManager: lpManager,
		Sgx: sgxAddr, EsSgx: esSgxAddr, BnSgx: bnSgxAddr, SgxLp: sgxLpAddr, Weth: wethAddr,
		Trackers: []tracker.UseCase{
			stakedSgxTracker, bonusSgxTracker, feeSgxTracker, feeSgxLpTracker, stakedSgxLpTracker,
		},
		Vesters:       []vester.UseCase{sgxVester, sgxLpVester},
		SgxLpTrackers: []domain.Address{feeSgxLpTrackerAddr, stakedSgxLpTrackerAddr},
	})

	// load persisted state before serving
	context.Info("loading ledgers")
	if err := registry.Locked(func() error {
		for _, t := range []token.UseCase{sgx, esSgx, bnSgx, sgxLp, weth} {
			if err := t.Load(context); err != nil {
				return err
			}
		}
		for _, d := range []distributor.UseCase{stakedSgxDist, bonusSgxDist, feeSgxDist, feeSgxLpDist, stakedSgxLpDist} {
			if err := d.Load(context); err != nil {
				return err
			}
		}
		for _, t := range []tracker.UseCase{stakedSgxTracker, bonusSgxTracker, feeSgxTracker, feeSgxLpTracker, stakedSgxLpTracker} {
			if err := t.Load(context); err != nil {
				return err
			}
		}
		for _, v := range []vester.UseCase{sgxVester, sgxLpVester} {
			if err := v.Load(context); err != nil {
				return err
			}
		}
		return stakingRouter.Load(context)
	}); err != nil {
		context.WithField("err", err).Panic("loading ledgers failed")
	}

	hcRepo := hc_repo.New(mongoClient, redisCache)
	hc := hc_usecase.New(hcRepo)
	auth := auth_usecase.New(viper.GetString("auth.jwtSecret"), viper.GetString("auth.signatureMsg"), redisCache)

	adminAddresses := viper.GetStringSlice("admin.addresses")
	authMiddleware := auth_middleware.New(auth, adminAddresses)

	hc_delivery.New(e, hc)
	auth_delivery.New(e, auth, viper.GetString("auth.signatureMsg"))
	router_delivery.New(e, stakingRouter, registry, authMiddleware.Auth(), authMiddleware.IsAdmin())
	vester_delivery.New(e, sgxVester, sgxLpVester, registry, authMiddleware.Auth())
	reader_delivery.New(e, stakingReader, registry)

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	ctx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
