package version

// Set with -ldflags "-X github.com/keshon/chatcmd/internal/version.Version=..."
var (
	AppName        = "chatcmd"
	AppDescription = "Chat command dispatcher for game servers"
	Version        = "dev"
	BuildDate      = "unknown"
)
