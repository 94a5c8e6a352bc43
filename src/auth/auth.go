package auth

import (
	"context"
	"time"

	"github.com/troydota/lotr-quotes/src/global"
	"github.com/troydota/lotr-quotes/src/instance"

	"github.com/nicklaw5/helix"
	"github.com/sirupsen/logrus"
)

const appAuthKey = "twitch:app-auth"

// GetAppAuth returns a client-credentials app token, cached in redis for
// three quarters of its reported lifetime.
func GetAppAuth(gCtx global.Context, ctx context.Context) (string, error) {
	val, err := gCtx.Inst().Redis.Get(ctx, appAuthKey)
	if err == nil {
		return val, nil
	}
	if err != instance.ErrRedisNil {
		logrus.Warn("unable to get auth from redis: ", err)
	}

	api, err := helix.NewClient(&helix.Options{
		ClientID:     gCtx.Config().Twitch.ClientID,
		ClientSecret: gCtx.Config().Twitch.ClientSecret,
	})
	if err != nil {
		return "", err
	}

	tkn, err := api.RequestAppAccessToken(nil)
	if err != nil {
		return "", err
	}

	auth := tkn.Data.AccessToken

	expiry := time.Second * time.Duration(int64(float64(tkn.Data.ExpiresIn)*0.75))

	if err := gCtx.Inst().Redis.SetEX(ctx, appAuthKey, auth, expiry); err != nil {
		logrus.Errorf("redis, err=%v", err)
	}

	return auth, nil
}
