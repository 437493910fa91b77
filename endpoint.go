package nafee3

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-kit/kit/endpoint"
)

type EndpointSet struct {
	GetProfile     endpoint.Endpoint
	SearchProfiles endpoint.Endpoint
	AddProfile     endpoint.Endpoint
	UpdateProfile  endpoint.Endpoint
	DeleteProfile  endpoint.Endpoint
	LoadProfiles   endpoint.Endpoint
}

func MakeEndpoints(svc Service) EndpointSet {
	return EndpointSet{
		GetProfile:     GetProfileEndpoint(svc),
		SearchProfiles: SearchProfilesEndpoint(svc),
		AddProfile:     AddProfileEndpoint(svc),
		UpdateProfile:  UpdateProfileEndpoint(svc),
		DeleteProfile:  DeleteProfileEndpoint(svc),
		LoadProfiles:   LoadProfilesEndpoint(svc),
	}
}

type Status string

const (
	StatusSuccess  Status = "success"
	StatusNotFound Status = "not_found"
	StatusConflict Status = "conflict"
	StatusError    Status = "error"
)

// ProfileResponse carries the outcome of a CRUD operation. Not found and
// conflict are statuses, never transport errors.
type ProfileResponse struct {
	Status    Status   `json:"status"`
	Message   string   `json:"message"`
	ProfileID string   `json:"profile_id,omitempty"`
	Profile   *Profile `json:"profile,omitempty"`
}

// Err turns a non-success status back into the matching error.
func (resp ProfileResponse) Err() error {
	switch resp.Status {
	case StatusSuccess:
		return nil

	case StatusNotFound:
		return ErrProfileNotFound

	case StatusConflict:
		return ErrProfileConflict

	default:
		return errors.New(resp.Message)
	}
}

func notFoundResponse() ProfileResponse {
	return ProfileResponse{
		Status:  StatusNotFound,
		Message: "Profile not found.",
	}
}

func GetProfileEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		id, ok := request.(string)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		profile, err := svc.GetProfile(ctx, id)
		switch {
		case errors.Is(err, ErrProfileNotFound):
			return notFoundResponse(), nil

		case err != nil:
			return ProfileResponse{
				Status:  StatusError,
				Message: fmt.Sprintf("Failed to retrieve profile: %s", err.Error()),
			}, nil
		}

		return ProfileResponse{
			Status:    StatusSuccess,
			Message:   fmt.Sprintf("Profile '%s' found.", id),
			ProfileID: id,
			Profile:   profile,
		}, nil
	}
}

type SearchProfilesRequest = SearchQuery

func SearchProfilesEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(SearchProfilesRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.SearchProfiles(ctx, req)
	}
}

type AddProfileRequest = Profile

func AddProfileEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(AddProfileRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		id, err := svc.AddProfile(ctx, req)
		switch {
		case errors.Is(err, ErrProfileConflict):
			return ProfileResponse{
				Status:    StatusConflict,
				Message:   fmt.Sprintf("Profile with ID '%s' already exists.", id),
				ProfileID: id,
			}, nil

		case err != nil:
			return ProfileResponse{
				Status:  StatusError,
				Message: fmt.Sprintf("Failed to create profile: %s", err.Error()),
			}, nil
		}

		return ProfileResponse{
			Status:    StatusSuccess,
			Message:   "Profile created successfully.",
			ProfileID: id,
		}, nil
	}
}

type UpdateProfileRequest = Profile

func UpdateProfileEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(UpdateProfileRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		err := svc.UpdateProfile(ctx, req)
		switch {
		case errors.Is(err, ErrProfileNotFound):
			return notFoundResponse(), nil

		case err != nil:
			return ProfileResponse{
				Status:    StatusError,
				Message:   fmt.Sprintf("Failed to update profile '%s': %s", req.ProfileID, err.Error()),
				ProfileID: req.ProfileID,
			}, nil
		}

		return ProfileResponse{
			Status:    StatusSuccess,
			Message:   fmt.Sprintf("Profile '%s' updated successfully.", req.ProfileID),
			ProfileID: req.ProfileID,
		}, nil
	}
}

func DeleteProfileEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		id, ok := request.(string)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		err := svc.DeleteProfile(ctx, id)
		switch {
		case errors.Is(err, ErrProfileNotFound):
			return notFoundResponse(), nil

		case err != nil:
			return ProfileResponse{
				Status:    StatusError,
				Message:   fmt.Sprintf("Failed to delete profile: %s", err.Error()),
				ProfileID: id,
			}, nil
		}

		return ProfileResponse{
			Status:    StatusSuccess,
			Message:   "Profile deleted successfully.",
			ProfileID: id,
		}, nil
	}
}

type LoadProfilesRequest struct {
	Source string `json:"source"`
}

type LoadProfilesResponse struct {
	Status  Status       `json:"status"`
	Message string       `json:"message"`
	Summary *LoadSummary `json:"summary,omitempty"`
}

func LoadProfilesEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(LoadProfilesRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		summary, err := svc.LoadProfiles(ctx, req.Source)
		if err != nil {
			return LoadProfilesResponse{
				Status:  StatusError,
				Message: fmt.Sprintf("Failed to load profiles: %s", err.Error()),
			}, nil
		}

		return LoadProfilesResponse{
			Status: StatusSuccess,
			Message: fmt.Sprintf("Loaded %d of %d profiles.",
				summary.Inserted, summary.Total),
			Summary: summary,
		}, nil
	}
}
