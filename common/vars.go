package common

// Version is set at build time via -ldflags.
var Version = "dev"

// PackageName is used as the service tag and the user agent prefix.
const PackageName = "devnet-dashboard-backend"
