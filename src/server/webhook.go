package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/troydota/lotr-quotes/src/global"
	"github.com/troydota/lotr-quotes/src/mongo"
	"github.com/troydota/lotr-quotes/src/utils"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/nicklaw5/helix"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	headerMessageID        = "Twitch-Eventsub-Message-Id"
	headerMessageTimestamp = "Twitch-Eventsub-Message-Timestamp"
	headerMessageSignature = "Twitch-Eventsub-Message-Signature"
	headerMessageType      = "Twitch-Eventsub-Message-Type"

	messageTypeVerification = "webhook_callback_verification"
	messageTypeNotification = "notification"

	chatTimeout = time.Second * 30
)

type WebhookCallback struct {
	Challenge    string                                                 `json:"challenge"`
	Subscription helix.EventSubSubscription                             `json:"subscription"`
	Event        helix.EventSubChannelPointsCustomRewardRedemptionEvent `json:"event"`
}

// verifySignature checks the keyed hash over message id, timestamp and raw
// body. Absent headers fail the comparison like any other mismatch.
func verifySignature(secret string, messageID string, timestamp string, body []byte, provided string) bool {
	h := hmac.New(sha256.New, utils.S2B(secret))
	h.Write(utils.S2B(messageID))
	h.Write(utils.S2B(timestamp))
	h.Write(body)

	expected := fmt.Sprintf("sha256=%s", hex.EncodeToString(h.Sum(nil)))

	return hmac.Equal(utils.S2B(expected), utils.S2B(provided))
}

func Webhook(gCtx global.Context, app fiber.Router, deps Deps) {
	app.Post("/webhook", func(c *fiber.Ctx) error {
		body := c.Body()

		callback := WebhookCallback{}
		if err := json.Unmarshal(body, &callback); err != nil {
			return c.SendStatus(400)
		}

		broadcasterID := callback.Subscription.Condition.BroadcasterUserID

		// no binding record means there is no secret to verify against
		sub, err := deps.Subs.Find(c.Context(), broadcasterID)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return c.SendStatus(404)
			}
			logrus.Errorf("mongo, err=%v", err)
			return err
		}

		msgID := c.Get(headerMessageID)
		timestamp := c.Get(headerMessageTimestamp)

		if !verifySignature(sub.Secret, msgID, timestamp, body, c.Get(headerMessageSignature)) {
			logrus.Warnf("signature mismatch, broadcaster=%s, msg=%s", broadcasterID, msgID)
			return c.SendStatus(403)
		}

		// twitch redelivers notifications it considers unacknowledged
		newKey := fmt.Sprintf("twitch:events:%s:%s", broadcasterID, msgID)
		set, err := gCtx.Inst().Redis.SetNX(c.Context(), newKey, "1", time.Hour)
		if err != nil {
			logrus.Errorf("redis, err=%v", err)
			return c.SendStatus(500)
		}
		if !set {
			logrus.Warnf("duplicate event key=%s", newKey)
			return c.SendStatus(200)
		}

		cleanUp := func(statusCode int, resp string) error {
			if statusCode >= 400 {
				if err := gCtx.Inst().Redis.Del(context.Background(), newKey); err != nil {
					logrus.Errorf("redis, err=%v", err)
				}
			}
			if resp == "" {
				return c.SendStatus(statusCode)
			}
			return c.Status(statusCode).SendString(resp)
		}

		switch c.Get(headerMessageType) {
		case messageTypeVerification:
			c.Set("Content-Type", "text/plain")
			return cleanUp(200, callback.Challenge)

		case messageTypeNotification:
			if !sub.HasReward(callback.Event.Reward.ID) {
				logrus.Infof("reward not connected to subscription, broadcaster=%s, reward=%s", broadcasterID, callback.Event.Reward.ID)
				return cleanUp(204, "")
			}

			text := "No LotR quotes have been configured"
			quote, ok, err := deps.Quotes.Random(c.Context())
			if err != nil {
				logrus.Errorf("quotes, err=%v", err)
				return cleanUp(500, "")
			}
			if ok {
				text = fmt.Sprintf("%s -%s", quote.Quote, quote.Speaker)
			} else {
				logrus.Error("no quote at the drawn id")
			}

			chatToken, chatUser, err := deps.Tokens.ChatToken(c.Context())
			if err != nil {
				logrus.Errorf("auth, err=%v", err)
				return cleanUp(500, "")
			}

			// best effort, the sender only wants a fast ack
			channel := callback.Event.BroadcasterUserLogin
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), chatTimeout)
				defer cancel()

				if err := deps.Chat.Send(ctx, chatUser, channel, text, chatToken); err != nil {
					logrus.Errorf("chat, channel=%s, err=%v", channel, err)
				}
			}()

			return cleanUp(204, "")

		default:
			logrus.Errorf("unsupported message type=%s", c.Get(headerMessageType))
			return cleanUp(501, "")
		}
	})
}
