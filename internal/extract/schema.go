package extract

import (
	"errors"
	"fmt"
	"strings"
)

// Schema recognises one page layout.
type Schema interface {
	Name() string
	Pages(scripts []string) ([]PageEntry, error)
	PlayInfo(scripts []string) (PlayInfo, error)
}

// combinedSchema reads the mobile layout, where __INITIAL_STATE__ carries
// both the page list and a single muxed stream URL.
type combinedSchema struct{}

type combinedState struct {
	Video *struct {
		ViewInfo *struct {
			Pages *[]rawPage `json:"pages"`
		} `json:"viewInfo"`
		PlayURLInfo []struct {
			URL string `json:"url"`
		} `json:"playUrlInfo"`
	} `json:"video"`
}

func (combinedSchema) Name() string { return SchemaCombined }

func (combinedSchema) decode(scripts []string) (combinedState, error) {
	var state combinedState
	if err := decodeAssignment(scripts, initialStatePattern, &state); err != nil {
		return state, err
	}
	if state.Video == nil {
		return state, errors.New("key video missing")
	}
	return state, nil
}

func (s combinedSchema) Pages(scripts []string) ([]PageEntry, error) {
	state, err := s.decode(scripts)
	if err != nil {
		return nil, err
	}
	if state.Video.ViewInfo == nil {
		return nil, errors.New("key video.viewInfo missing")
	}
	return convertPages(state.Video.ViewInfo.Pages, "video.viewInfo.pages")
}

func (s combinedSchema) PlayInfo(scripts []string) (PlayInfo, error) {
	state, err := s.decode(scripts)
	if err != nil {
		return PlayInfo{}, err
	}
	if len(state.Video.PlayURLInfo) == 0 {
		return PlayInfo{}, errors.New("key video.playUrlInfo missing")
	}
	url := strings.TrimSpace(state.Video.PlayURLInfo[0].URL)
	if url == "" {
		return PlayInfo{}, errors.New("key video.playUrlInfo[0].url missing")
	}
	return PlayInfo{Schema: SchemaCombined, VideoURL: url}, nil
}

// dashSchema reads the desktop layout, where the page list lives under
// videoData and separate audio and video streams live in __playinfo__.
type dashSchema struct{}

type dashState struct {
	VideoData *struct {
		Pages *[]rawPage `json:"pages"`
	} `json:"videoData"`
}

type dashStream struct {
	BaseURL      string `json:"base_url"`
	BaseURLCamel string `json:"baseUrl"`
}

func (s dashStream) url() string {
	if s.BaseURL != "" {
		return strings.TrimSpace(s.BaseURL)
	}
	return strings.TrimSpace(s.BaseURLCamel)
}

type dashPlayInfo struct {
	Data *struct {
		Dash *struct {
			Video []dashStream `json:"video"`
			Audio []dashStream `json:"audio"`
		} `json:"dash"`
	} `json:"data"`
}

func (dashSchema) Name() string { return SchemaDash }

func (dashSchema) Pages(scripts []string) ([]PageEntry, error) {
	var state dashState
	if err := decodeAssignment(scripts, initialStatePattern, &state); err != nil {
		return nil, err
	}
	if state.VideoData == nil {
		return nil, errors.New("key videoData missing")
	}
	return convertPages(state.VideoData.Pages, "videoData.pages")
}

func (dashSchema) PlayInfo(scripts []string) (PlayInfo, error) {
	var info dashPlayInfo
	if err := decodeAssignment(scripts, playInfoPattern, &info); err != nil {
		return PlayInfo{}, err
	}
	if info.Data == nil || info.Data.Dash == nil {
		return PlayInfo{}, errors.New("key data.dash missing")
	}
	dash := info.Data.Dash
	if len(dash.Video) == 0 || dash.Video[0].url() == "" {
		return PlayInfo{}, errors.New("key data.dash.video[0].base_url missing")
	}
	if len(dash.Audio) == 0 || dash.Audio[0].url() == "" {
		return PlayInfo{}, errors.New("key data.dash.audio[0].base_url missing")
	}
	return PlayInfo{
		Schema:   SchemaDash,
		VideoURL: dash.Video[0].url(),
		AudioURL: dash.Audio[0].url(),
	}, nil
}

// schemaErrors joins per-schema failures into one readable message.
func schemaErrors(errs map[string]error, order []Schema) string {
	parts := make([]string, 0, len(order))
	for _, s := range order {
		if err, ok := errs[s.Name()]; ok {
			parts = append(parts, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}
	return strings.Join(parts, "; ")
}
