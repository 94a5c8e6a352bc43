package twitchapi

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"

	"github.com/troydota/lotr-quotes/src/global"
	"github.com/troydota/lotr-quotes/src/structures"

	jsoniter "github.com/json-iterator/go"
	"github.com/nicklaw5/helix"
	"github.com/pasztorpisti/qs"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrInvalidRespTwitch = fmt.Errorf("invalid resp from twitch")

// Credentials is one OAuth grant as returned by the token endpoint.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	Scopes       []string
}

func newClient(gCtx global.Context) (*helix.Client, error) {
	return helix.NewClient(&helix.Options{
		ClientID:     gCtx.Config().Twitch.ClientID,
		ClientSecret: gCtx.Config().Twitch.ClientSecret,
		RedirectURI:  gCtx.Config().Twitch.RedirectURI,
	})
}

// AuthorizationURL builds the code-grant redirect for the requested scopes.
func AuthorizationURL(gCtx global.Context, state string, scopes []string) (string, error) {
	api, err := newClient(gCtx)
	if err != nil {
		return "", err
	}

	return api.GetAuthorizationURL(&helix.AuthorizationURLParams{
		ResponseType: "code",
		Scopes:       scopes,
		State:        state,
	}), nil
}

// ExchangeCode converts an authorization code into user credentials.
func ExchangeCode(gCtx global.Context, ctx context.Context, code string) (Credentials, error) {
	api, err := newClient(gCtx)
	if err != nil {
		return Credentials{}, err
	}

	resp, err := api.RequestUserAccessToken(code)
	if err != nil || resp.Error != "" {
		if err == nil {
			err = fmt.Errorf("%s %s %d", resp.Error, resp.ErrorMessage, resp.ErrorStatus)
		}
		return Credentials{}, err
	}

	return Credentials{
		AccessToken:  resp.Data.AccessToken,
		RefreshToken: resp.Data.RefreshToken,
		ExpiresIn:    resp.Data.ExpiresIn,
		Scopes:       resp.Data.Scopes,
	}, nil
}

// Refresh exchanges a refresh token for fresh user credentials.
func Refresh(gCtx global.Context, ctx context.Context, refreshToken string) (Credentials, error) {
	api, err := newClient(gCtx)
	if err != nil {
		return Credentials{}, err
	}

	resp, err := api.RefreshUserAccessToken(refreshToken)
	if err != nil || resp.Error != "" {
		if err == nil {
			err = fmt.Errorf("%s %s %d", resp.Error, resp.ErrorMessage, resp.ErrorStatus)
		}
		return Credentials{}, err
	}

	return Credentials{
		AccessToken:  resp.Data.AccessToken,
		RefreshToken: resp.Data.RefreshToken,
		ExpiresIn:    resp.Data.ExpiresIn,
		Scopes:       resp.Data.Scopes,
	}, nil
}

// CurrentUser resolves the identity behind a user access token.
func CurrentUser(gCtx global.Context, ctx context.Context, accessToken string) (helix.User, error) {
	api, err := newClient(gCtx)
	if err != nil {
		return helix.User{}, err
	}

	api.SetUserAccessToken(accessToken)

	users, err := api.GetUsers(&helix.UsersParams{})
	if err != nil || users.Error != "" || len(users.Data.Users) != 1 {
		if err == nil {
			err = fmt.Errorf("%s %s %d", users.Error, users.ErrorMessage, users.ErrorStatus)
		}
		return helix.User{}, err
	}

	return users.Data.Users[0], nil
}

// GetRewards lists the broadcaster's custom channel-point rewards.
func GetRewards(gCtx global.Context, ctx context.Context, broadcasterID string, accessToken string) ([]structures.Reward, error) {
	params, _ := qs.Marshal(map[string]string{
		"broadcaster_id": broadcasterID,
	})

	u, _ := url.Parse(fmt.Sprintf("https://api.twitch.tv/helix/channel_points/custom_rewards?%s", params))

	req := &http.Request{
		Method: "GET",
		URL:    u,
		Header: http.Header{
			"Client-Id":     []string{gCtx.Config().Twitch.ClientID},
			"Authorization": []string{fmt.Sprintf("Bearer %s", accessToken)},
		},
	}

	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode > 300 {
		return nil, ErrInvalidRespTwitch
	}

	respData := struct {
		Data []structures.Reward `json:"data"`
	}{}
	if err := json.Unmarshal(data, &respData); err != nil {
		return nil, err
	}

	return respData.Data, nil
}

const redemptionEventType = "channel.channel_points_custom_reward_redemption.add"

// EventSub performs the remote webhook subscription calls with an app token.
type EventSub struct {
	gCtx  global.Context
	token func(ctx context.Context) (string, error)
}

func NewEventSub(gCtx global.Context, token func(ctx context.Context) (string, error)) *EventSub {
	return &EventSub{
		gCtx:  gCtx,
		token: token,
	}
}

func (e *EventSub) appClient(ctx context.Context) (*helix.Client, error) {
	tkn, err := e.token(ctx)
	if err != nil {
		return nil, err
	}

	return helix.NewClient(&helix.Options{
		ClientID:       e.gCtx.Config().Twitch.ClientID,
		ClientSecret:   e.gCtx.Config().Twitch.ClientSecret,
		AppAccessToken: tkn,
	})
}

// Subscribe registers the redemption webhook for one broadcaster and returns
// the remote subscription id.
func (e *EventSub) Subscribe(ctx context.Context, broadcasterID string, secret string) (string, error) {
	api, err := e.appClient(ctx)
	if err != nil {
		return "", err
	}

	resp, err := api.CreateEventSubSubscription(&helix.EventSubSubscription{
		Type:    redemptionEventType,
		Version: "1",
		Condition: helix.EventSubCondition{
			BroadcasterUserID: broadcasterID,
		},
		Transport: helix.EventSubTransport{
			Method:   "webhook",
			Callback: e.gCtx.Config().Twitch.WebhookURI,
			Secret:   secret,
		},
	})
	if err != nil || resp.Error != "" || len(resp.Data.EventSubSubscriptions) == 0 {
		if err == nil {
			err = fmt.Errorf("%s %s %d", resp.Error, resp.ErrorMessage, resp.ErrorStatus)
		}
		return "", err
	}

	return resp.Data.EventSubSubscriptions[0].ID, nil
}

// Unsubscribe removes the remote webhook subscription.
func (e *EventSub) Unsubscribe(ctx context.Context, subscriptionID string) error {
	api, err := e.appClient(ctx)
	if err != nil {
		return err
	}

	resp, err := api.RemoveEventSubSubscription(subscriptionID)
	if err != nil || resp.Error != "" {
		if err == nil {
			err = fmt.Errorf("%s %s %d", resp.Error, resp.ErrorMessage, resp.ErrorStatus)
		}
		return err
	}

	return nil
}
