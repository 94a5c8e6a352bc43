package server

import (
	"context"
	"time"

	"github.com/troydota/lotr-quotes/src/auth"
	"github.com/troydota/lotr-quotes/src/chat"
	"github.com/troydota/lotr-quotes/src/global"
	"github.com/troydota/lotr-quotes/src/quotes"
	"github.com/troydota/lotr-quotes/src/structures"
	"github.com/troydota/lotr-quotes/src/subscription"
	"github.com/troydota/lotr-quotes/src/twitchapi"
	"github.com/troydota/lotr-quotes/src/utils"

	"github.com/davecgh/go-spew/spew"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

type customLogger struct{}

func (*customLogger) Write(data []byte) (n int, err error) {
	logrus.Infoln(utils.B2S(data))
	return len(data), nil
}

// TokenManager resolves fresh access tokens for stored identities.
type TokenManager interface {
	UserToken(ctx context.Context, broadcasterID string) (string, error)
	ChatToken(ctx context.Context) (string, string, error)
}

// TokenWriter persists a credential obtained from the code grant.
type TokenWriter interface {
	Put(ctx context.Context, token structures.Token) error
}

// Toggler runs one reward toggle through the binding state machine.
type Toggler interface {
	Toggle(ctx context.Context, broadcasterID string, rewardID string, offered []structures.Reward) (subscription.Result, error)
}

// SubscriptionFinder looks up the reward binding for a broadcaster.
type SubscriptionFinder interface {
	Find(ctx context.Context, broadcasterID string) (structures.Subscription, error)
}

// QuoteSource draws a random quote, reporting whether the drawn id existed.
type QuoteSource interface {
	Random(ctx context.Context) (structures.Quote, bool, error)
}

// ChatRelay delivers one message to a channel's chat.
type ChatRelay interface {
	Send(ctx context.Context, username string, channel string, text string, accessToken string) error
}

// RewardLister fetches the broadcaster's live custom rewards.
type RewardLister func(ctx context.Context, broadcasterID string, accessToken string) ([]structures.Reward, error)

// Deps carries the route handlers' collaborators.
type Deps struct {
	Tokens     TokenManager
	TokenStore TokenWriter
	Engine     Toggler
	Subs       SubscriptionFinder
	Quotes     QuoteSource
	Chat       ChatRelay
	Rewards    RewardLister
}

func New(gCtx global.Context) <-chan struct{} {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			logrus.Errorf("internal err=%v", spew.Sdump(err))

			return c.SendStatus(500)
		},
		ReadTimeout:           time.Second * 10,
		WriteTimeout:          time.Second * 10,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Output: &customLogger{},
	}))

	tokenStore := auth.NewStore(gCtx.Inst().Mongo)
	refresher := auth.NewRefresher(tokenStore, func(ctx context.Context, refreshToken string) (twitchapi.Credentials, error) {
		return twitchapi.Refresh(gCtx, ctx, refreshToken)
	})
	eventsub := twitchapi.NewEventSub(gCtx, func(ctx context.Context) (string, error) {
		return auth.GetAppAuth(gCtx, ctx)
	})
	subStore := subscription.NewStore(gCtx.Inst().Mongo)

	deps := Deps{
		Tokens:     auth.NewManager(tokenStore, refresher),
		TokenStore: tokenStore,
		Engine:     subscription.NewEngine(subStore, eventsub, gCtx.Config().Twitch.SecretLength),
		Subs:       subStore,
		Quotes:     quotes.NewSource(quotes.NewStore(gCtx.Inst().Mongo), gCtx.Config().Quotes.MinID, gCtx.Config().Quotes.MaxID),
		Chat:       chat.NewIRC(gCtx.Config().Chat.IrcURL),
		Rewards: func(ctx context.Context, broadcasterID string, accessToken string) ([]structures.Reward, error) {
			return twitchapi.GetRewards(gCtx, ctx, broadcasterID, accessToken)
		},
	}

	Twitch(gCtx, app, deps)
	Webhook(gCtx, app, deps)

	app.Use(func(c *fiber.Ctx) error {
		return c.SendStatus(404)
	})

	done := make(chan struct{})
	go func() {
		if err := app.Listen(gCtx.Config().API.Bind); err != nil {
			logrus.Errorf("failed to start http server, err=%v", err)
		}
		close(done)
	}()

	go func() {
		<-gCtx.Done()
		_ = app.Shutdown()
	}()

	return done
}
