package cmd

import (
	"fmt"
)

const banner = `
  _______                     _ _    _       _
 |__   __|                   | | |  | |     | |
    | |_   _ _ __  _ __   ___| | |__| |_   _| |__
    | | | | | '_ \| '_ \ / _ \ |  __  | | | | '_ \
    | | |_| | | | | | | |  __/ | |  | | |_| | |_) |
    |_|\__,_|_| |_|_| |_|\___|_|_|  |_|\__,_|_.__/

`

func printBanner() {
	fmt.Printf("\x1b[34m%s\x1b[0m", banner)
	fmt.Printf("\x1b[32m  Secure Tunnel Dashboard - Version %s\x1b[0m\n\n", Version)
}
