package nats

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	"github.com/nafee3/nafee3"
)

func MakeEndpoints(nc *nats.Conn, prefix string) *nafee3.EndpointSet {
	return &nafee3.EndpointSet{
		GetProfile:     GetProfileEndpoint(nc, prefix+".get_profile"),
		SearchProfiles: SearchProfilesEndpoint(nc, prefix+".search_profiles"),
		AddProfile:     AddProfileEndpoint(nc, prefix+".add_profile"),
		UpdateProfile:  UpdateProfileEndpoint(nc, prefix+".update_profile"),
		DeleteProfile:  DeleteProfileEndpoint(nc, prefix+".delete_profile"),
		LoadProfiles:   LoadProfilesEndpoint(nc, prefix+".load_profiles"),
	}
}

func doRequest(ctx context.Context, nc *nats.Conn, topic string, data []byte) ([]byte, error) {
	msg, err := nc.RequestWithContext(ctx, topic, data)
	if err != nil {
		return nil, err
	}

	if err := Error(msg); err != nil {
		return nil, err
	}

	return msg.Data, nil
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, nats.DefaultTimeout)
}

func profileEndpoint(nc *nats.Conn, topic string, encode func(any) ([]byte, error)) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		data, err := encode(request)
		if err != nil {
			return nil, err
		}

		ctx, cancel := withTimeout(ctx)
		defer cancel()

		bs, err := doRequest(ctx, nc, topic, data)
		if err != nil {
			return nil, err
		}

		var resp nafee3.ProfileResponse
		if err := json.Unmarshal(bs, &resp); err != nil {
			return nil, err
		}

		return resp, nil
	}
}

func encodeID(request any) ([]byte, error) {
	profileID, ok := request.(string)
	if !ok {
		return nil, errors.New("invalid request")
	}

	return []byte(profileID), nil
}

func encodeProfile(request any) ([]byte, error) {
	profile, ok := request.(nafee3.Profile)
	if !ok {
		return nil, errors.New("invalid request")
	}

	return json.Marshal(&profile)
}

func GetProfileEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return profileEndpoint(nc, topic, encodeID)
}

func AddProfileEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return profileEndpoint(nc, topic, encodeProfile)
}

func UpdateProfileEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return profileEndpoint(nc, topic, encodeProfile)
}

func DeleteProfileEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return profileEndpoint(nc, topic, encodeID)
}

func SearchProfilesEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(nafee3.SearchProfilesRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		ctx, cancel := withTimeout(ctx)
		defer cancel()

		bs, err := doRequest(ctx, nc, topic, data)
		if err != nil {
			return nil, err
		}

		results := make([]nafee3.SearchResult, 0)
		if err := json.Unmarshal(bs, &results); err != nil {
			return nil, err
		}

		return results, nil
	}
}

func LoadProfilesEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(nafee3.LoadProfilesRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		// Bulk loads outlive the default request timeout.
		bs, err := doRequest(ctx, nc, topic, data)
		if err != nil {
			return nil, err
		}

		var resp nafee3.LoadProfilesResponse
		if err := json.Unmarshal(bs, &resp); err != nil {
			return nil, err
		}

		return resp, nil
	}
}

func Error(msg *nats.Msg) error {
	if msg == nil {
		return errors.New("nil message")
	}

	code := msg.Header.Get(micro.ErrorCodeHeader)
	if code == "" {
		return nil
	}

	description := msg.Header.Get(micro.ErrorHeader)
	if description == "" {
		description = "unknown error"
	}

	return errors.New(code + ":" + description)
}
