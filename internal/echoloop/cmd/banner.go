package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/kiosk404/echoloop/pkg/version"
)

const bannerText = `
  _____     _           _                   
 | ____|___| |__   ___ | |    ___   ___  _ __  
 |  _| / __| '_ \ / _ \| |   / _ \ / _ \| '_ \ 
 | |__| (__| | | | (_) | |__| (_) | (_) | |_) |
 |_____\___|_| |_|\___/|_____\___/ \___/| .__/ 
                                        |_|    
       Echoloop Agent Activity Runner
`

// Banner returns the CLI banner string.
func Banner() string {
	return fmt.Sprintf("%s\n  Version: %s\n", color.CyanString(bannerText), version.Get().String())
}
