package banner

import (
	"fmt"

	"pairchat/pkg/config"
)

const banner = `
██████╗  █████╗ ██╗██████╗  ██████╗██╗  ██╗ █████╗ ████████╗
██╔══██╗██╔══██╗██║██╔══██╗██╔════╝██║  ██║██╔══██╗╚══██╔══╝
██████╔╝███████║██║██████╔╝██║     ███████║███████║   ██║
██╔═══╝ ██╔══██║██║██╔══██╗██║     ██╔══██║██╔══██║   ██║
██║     ██║  ██║██║██║  ██║╚██████╗██║  ██║██║  ██║   ██║
╚═╝     ╚═╝  ╚═╝╚═╝╚═╝  ╚═╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝
`

// Print writes the startup banner with a short config summary.
func Print(cfg *config.Config, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", cfg.Addr())
	fmt.Printf("DB Path:  %s\n", cfg.Server.DBPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if n := len(cfg.Security.APIKeys.Frontend); n > 0 {
		fmt.Printf("- Frontend API keys: OK (%d)\n", n)
	} else {
		fmt.Println("- Frontend API keys: none (open access, dev mode)")
	}
	if cfg.Retention.Enabled {
		fmt.Printf("- Retention: enabled (cron=%s period=%s)\n", cfg.Retention.Cron, cfg.Retention.Period.Std())
	} else {
		fmt.Println("- Retention: disabled")
	}
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -H 'X-Identity: <user>' 'http://localhost%s/v1/conversations/<id>/messages?page=0'\n", cfg.Addr())
	fmt.Printf("curl -N -H 'X-Identity: <user>' 'http://localhost%s/v1/conversations/<id>/events'\n", cfg.Addr())
	fmt.Println()
}
