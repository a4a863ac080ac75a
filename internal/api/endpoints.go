package api

// Route paths, shared by the router and the API client.
const (
	UsersRegister  = "/api/users/register"
	UsersLogin     = "/api/users/login"
	UsersRefresh   = "/api/users/refresh"
	UsersProfile   = "/api/users/profile"
	UsersMyAds     = "/api/users/my-ads"
	UsersDashboard = "/api/users/dashboard"
	UsersAdmin     = "/api/users/admin"

	Ads       = "/api/ads"
	AdsAdmin  = "/api/ads/admin"
	AdsStats  = "/api/ads/stats"
	AdsUpload = "/api/ads/upload"
)
