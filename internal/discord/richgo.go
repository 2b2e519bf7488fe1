package discord

import (
	"time"

	"github.com/hugolgst/rich-go/client"

	"nowcast/internal/core"
)

// RichTransport drives Discord Rich Presence over the local IPC socket via
// rich-go. rich-go keeps one process-global session, which is fine here:
// there is exactly one presence identity per process and the Channel
// serializes every call.
type RichTransport struct {
	clientID string
}

func NewRichTransport(clientID string) *RichTransport {
	return &RichTransport{clientID: clientID}
}

func (t *RichTransport) Connect() error {
	return client.Login(t.clientID)
}

func (t *RichTransport) Update(params core.UpdateParams) error {
	activity := client.Activity{
		Details:    params.Details,
		State:      params.State,
		LargeImage: params.LargeImage,
		LargeText:  params.LargeText,
		SmallImage: params.SmallImage,
		SmallText:  params.SmallText,
	}

	if params.StartTimestamp != nil {
		start := time.Unix(*params.StartTimestamp, 0)
		activity.Timestamps = &client.Timestamps{Start: &start}
	}

	for _, b := range params.Buttons {
		activity.Buttons = append(activity.Buttons, &client.Button{
			Label: b.Label,
			Url:   b.URL,
		})
	}

	return client.SetActivity(activity)
}

// Clear drops the displayed activity. rich-go has no clear RPC, so this
// logs out and straight back in; a fresh session carries no activity.
func (t *RichTransport) Clear() error {
	client.Logout()
	return client.Login(t.clientID)
}

func (t *RichTransport) Close() error {
	client.Logout()
	return nil
}
