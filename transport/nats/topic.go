package nats

import (
	"github.com/nats-io/nats.go/micro"

	"github.com/nafee3/nafee3"
)

func AddEndpoints(group micro.Group, endpoints nafee3.EndpointSet) {
	group.AddEndpoint("get_profile", GetProfileHandler(endpoints.GetProfile))
	group.AddEndpoint("search_profiles", SearchProfilesHandler(endpoints.SearchProfiles))
	group.AddEndpoint("add_profile", AddProfileHandler(endpoints.AddProfile))
	group.AddEndpoint("update_profile", UpdateProfileHandler(endpoints.UpdateProfile))
	group.AddEndpoint("delete_profile", DeleteProfileHandler(endpoints.DeleteProfile))
	group.AddEndpoint("load_profiles", LoadProfilesHandler(endpoints.LoadProfiles))
}
