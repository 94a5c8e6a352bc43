package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/troydota/lotr-quotes/src/global"
	"github.com/troydota/lotr-quotes/src/mongo"
	"github.com/troydota/lotr-quotes/src/structures"
	"github.com/troydota/lotr-quotes/src/subscription"
	"github.com/troydota/lotr-quotes/src/twitchapi"
	"github.com/troydota/lotr-quotes/src/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const redemptionsScope = "channel:read:redemptions"

func hasScope(scopes []string, scope string) bool {
	for _, s := range scopes {
		if s == scope {
			return true
		}
	}
	return false
}

func Twitch(gCtx global.Context, app fiber.Router, deps Deps) {
	app.Get("/login", func(c *fiber.Ctx) error {
		csrfToken, err := utils.GenerateRandomString(64)
		if err != nil {
			logrus.Errorf("secure bytes, err=%v", err)
			return c.Status(500).JSON(&fiber.Map{
				"message": "Internal server error.",
				"status":  500,
			})
		}

		scopes := []string{redemptionsScope}
		if c.Query("chat") != "" {
			// the chat bot identity asks for write access instead
			scopes = []string{"chat:read", "chat:edit"}
		}

		authURL, err := twitchapi.AuthorizationURL(gCtx, csrfToken, scopes)
		if err != nil {
			logrus.Errorf("twitch, err=%v", err)
			return c.Status(500).JSON(&fiber.Map{
				"message": "Internal server error.",
				"status":  500,
			})
		}

		c.Cookie(&fiber.Cookie{
			Name:     "twitch_csrf",
			Value:    csrfToken,
			Domain:   gCtx.Config().Frontend.CookieDomain,
			Secure:   gCtx.Config().Frontend.CookieSecure,
			HTTPOnly: true,
		})

		return c.Redirect(authURL)
	})

	app.Get("/callback", func(c *fiber.Ctx) error {
		twitchToken := c.Query("state")

		if twitchToken == "" {
			return c.Status(400).JSON(&fiber.Map{
				"status":  400,
				"message": "Invalid response from twitch, missing state paramater.",
			})
		}

		if twitchToken != c.Cookies("twitch_csrf") {
			return c.Status(400).JSON(&fiber.Map{
				"status":  400,
				"message": "Invalid response from twitch, csrf_token token missmatch.",
			})
		}

		creds, err := twitchapi.ExchangeCode(gCtx, c.Context(), c.Query("code"))
		if err != nil {
			logrus.Errorf("twitch, err=%v", err)
			return c.Status(400).JSON(&fiber.Map{
				"status":  400,
				"message": "Invalid response from twitch, failed to convert code to access token.",
			})
		}

		user, err := twitchapi.CurrentUser(gCtx, c.Context(), creds.AccessToken)
		if err != nil {
			logrus.Errorf("twitch, err=%v", err)
			return c.Status(400).JSON(&fiber.Map{
				"status":  400,
				"message": "Invalid response from twitch, failed to convert access token to user account.",
			})
		}

		err = deps.TokenStore.Put(c.Context(), structures.Token{
			AccessToken:  creds.AccessToken,
			RefreshToken: creds.RefreshToken,
			Scopes:       creds.Scopes,
			ExpiresAt:    time.Now().UTC().Add(time.Duration(creds.ExpiresIn) * time.Second),
			OwnerID:      user.ID,
			Username:     user.Login,
		})
		if err != nil {
			logrus.Errorf("mongo, err=%v", err)
			return err
		}

		if hasScope(creds.Scopes, redemptionsScope) {
			return c.Redirect(fmt.Sprintf("%s?broadcaster_id=%s", gCtx.Config().Twitch.SelectURI, user.ID), 307)
		}

		return c.JSON(&fiber.Map{
			"success": true,
		})
	})

	app.Get("/select", func(c *fiber.Ctx) error {
		broadcasterID := c.Query("broadcaster_id")
		if broadcasterID == "" {
			return c.SendStatus(400)
		}

		accessToken, err := deps.Tokens.UserToken(c.Context(), broadcasterID)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return c.Status(404).JSON(&fiber.Map{
					"status":  404,
					"message": "No authorization on record for this broadcaster.",
				})
			}
			logrus.Errorf("auth, err=%v", err)
			return err
		}

		rewards, err := deps.Rewards(c.Context(), broadcasterID, accessToken)
		if err != nil {
			logrus.Errorf("twitch, err=%v", err)
			return err
		}

		banner := ""
		if rewardID := c.Query("reward_id"); rewardID != "" {
			result, err := deps.Engine.Toggle(c.Context(), broadcasterID, rewardID, rewards)
			switch {
			case errors.Is(err, subscription.ErrInvalidReward):
				banner = "Invalid Reward Selected"
			case errors.Is(err, subscription.ErrRemoteSubscription):
				logrus.Errorf("eventsub, err=%v", err)
				banner = "Could not update the reward connection, please try again."
			case err != nil:
				logrus.Errorf("toggle, err=%v", err)
				return err
			case result.Connected:
				banner = fmt.Sprintf("Successfully connected reward: %s", result.Title)
			default:
				banner = fmt.Sprintf("Successfully disconnected reward: %s", result.Title)
			}
		}

		connected := []string{}
		sub, err := deps.Subs.Find(c.Context(), broadcasterID)
		if err == nil {
			connected = sub.RewardIDs
		} else if err != mongo.ErrNoDocuments {
			logrus.Errorf("mongo, err=%v", err)
			return err
		}

		return c.JSON(&fiber.Map{
			"broadcaster_id": broadcasterID,
			"rewards":        rewards,
			"connected":      connected,
			"message":        banner,
		})
	})
}
