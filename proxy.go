package nafee3

import (
	"context"
	"errors"
)

// ProxyMiddleware forwards every call to a remote service through endpoints,
// typically the NATS client endpoints.
func ProxyMiddleware(endpoints *EndpointSet) ServiceMiddleware {
	return func(next Service) Service {
		return &proxyMiddleware{
			endpoints: endpoints,
		}
	}
}

type proxyMiddleware struct {
	endpoints *EndpointSet
}

func (mw *proxyMiddleware) Close() error {
	return errors.New("method not implemented")
}

func profileResponse(resp any) (ProfileResponse, error) {
	switch r := resp.(type) {
	case ProfileResponse:
		return r, nil

	case *ProfileResponse:
		return *r, nil

	default:
		return ProfileResponse{}, errors.New("invalid response type")
	}
}

func (mw *proxyMiddleware) GetProfile(ctx context.Context, id string) (*Profile, error) {
	resp, err := mw.endpoints.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	r, err := profileResponse(resp)
	if err != nil {
		return nil, err
	}

	if err := r.Err(); err != nil {
		return nil, err
	}

	return r.Profile, nil
}

func (mw *proxyMiddleware) SearchProfiles(ctx context.Context, query SearchQuery) ([]SearchResult, error) {
	resp, err := mw.endpoints.SearchProfiles(ctx, query)
	if err != nil {
		return nil, err
	}

	results, ok := resp.([]SearchResult)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return results, nil
}

func (mw *proxyMiddleware) AddProfile(ctx context.Context, profile Profile) (string, error) {
	resp, err := mw.endpoints.AddProfile(ctx, profile)
	if err != nil {
		return "", err
	}

	r, err := profileResponse(resp)
	if err != nil {
		return "", err
	}

	return r.ProfileID, r.Err()
}

func (mw *proxyMiddleware) UpdateProfile(ctx context.Context, profile Profile) error {
	resp, err := mw.endpoints.UpdateProfile(ctx, profile)
	if err != nil {
		return err
	}

	r, err := profileResponse(resp)
	if err != nil {
		return err
	}

	return r.Err()
}

func (mw *proxyMiddleware) DeleteProfile(ctx context.Context, id string) error {
	resp, err := mw.endpoints.DeleteProfile(ctx, id)
	if err != nil {
		return err
	}

	r, err := profileResponse(resp)
	if err != nil {
		return err
	}

	return r.Err()
}

func (mw *proxyMiddleware) LoadProfiles(ctx context.Context, source string) (*LoadSummary, error) {
	req := LoadProfilesRequest{
		Source: source,
	}

	resp, err := mw.endpoints.LoadProfiles(ctx, req)
	if err != nil {
		return nil, err
	}

	r, ok := resp.(LoadProfilesResponse)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	if r.Status != StatusSuccess {
		return nil, errors.New(r.Message)
	}

	return r.Summary, nil
}
