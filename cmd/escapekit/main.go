package main

import (
	"fmt"
	"os"
)

// Version is set at build time via ldflags
var Version = "dev"

// pidFile is written by escapekitd to the config directory
const pidFile = "escapekitd.pid"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit()
	case "start":
		err = cmdStart()
	case "stop":
		err = cmdStop()
	case "status":
		err = cmdStatus()
	case "logs":
		err = cmdLogs()
	case "doctor":
		err = cmdDoctor()
	case "config":
		err = cmdConfig()
	case "plan":
		err = cmdPlan(os.Args[2:])
	case "mcp":
		err = cmdMCP()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("escapekit %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`escapekit - Escape-room lesson planning

Usage:
  escapekit <command> [arguments]

Setup Commands:
  init            Create ~/.escapekit and a default config
  doctor          Check configuration and generator access
  config          Show current configuration

Daemon Commands:
  start           Start the escapekit daemon (web page at http://127.0.0.1:7433)
  stop            Stop the escapekit daemon
  status          Show daemon status
  logs            View daemon logs

Planning Commands:
  plan            Generate a plan from the command line

Integration Commands:
  mcp             Start MCP server on stdio

Other:
  help            Show this help message
  version         Show version information

The Gemini API key is read from GEMINI_API_KEY (or a .env file) and is
never written to disk.

Examples:
  escapekit start
  escapekit plan -level 초등 -type 스토리텔링형 -objectives "분수의 크기를 비교한다"
  escapekit plan -level middle -type mystery -objectives "..." -assets -out ./plans`)
}
