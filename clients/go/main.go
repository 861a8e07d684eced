// Sandbox CLI - Command line client for the Simple Email Sandbox
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/andybrowning5/Simple-Email-Sandbox/clients/go/sandbox"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("SANDBOX_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := sandbox.NewClient(baseURL)
	cmd := os.Args[1]

	switch cmd {
	case "health":
		resp, err := client.Health()
		exitOnError(err)
		printJSON(resp)

	case "identity":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: sandbox-client identity <group> <address>")
			os.Exit(1)
		}
		client.Group = os.Args[2]
		client.Address = os.Args[3]
		exitOnError(client.SaveIdentity())
		fmt.Printf("Saved identity: %s in %s\n", client.Address, client.Group)

	case "groups":
		resp, err := client.Groups()
		exitOnError(err)
		for _, g := range resp.Groups {
			fmt.Printf("  %s  (%d agents: %s)\n", g.ID, g.AgentCount, strings.Join(g.Agents, ", "))
		}

	case "create-group":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: sandbox-client create-group <id> <agent,agent,...>")
			os.Exit(1)
		}
		resp, err := client.CreateGroup(os.Args[2], strings.Split(os.Args[3], ","))
		exitOnError(err)
		fmt.Printf("Created group %s with %d agent(s)\n", resp.ID, resp.AgentCount)

	case "write":
		if len(os.Args) < 5 {
			fmt.Fprintln(os.Stderr, "Usage: sandbox-client write <to,to,...> <subject> <body>")
			os.Exit(1)
		}
		resp, err := client.Write(sandbox.WriteRequest{
			To:      strings.Split(os.Args[2], ","),
			Subject: os.Args[3],
			Body:    os.Args[4],
		})
		exitOnError(err)
		fmt.Printf("Sent message %s in thread %s\n", resp.MessageID, resp.ThreadID)

	case "reply":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: sandbox-client reply <thread_id> <body>")
			os.Exit(1)
		}
		resp, err := client.Reply(os.Args[2], "", os.Args[3], "")
		exitOnError(err)
		fmt.Printf("Replied to %s (message %s)\n", strings.Join(resp.To, ", "), resp.MessageID)

	case "reply-all":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: sandbox-client reply-all <thread_id> <body>")
			os.Exit(1)
		}
		resp, err := client.ReplyAll(os.Args[2], "", os.Args[3], "")
		exitOnError(err)
		fmt.Printf("Replied to %s (message %s)\n", strings.Join(resp.To, ", "), resp.MessageID)

	case "inbox":
		agent := client.Address
		if len(os.Args) > 2 {
			agent = os.Args[2]
		}
		resp, err := client.InboxPreview("", agent, 20, 0)
		exitOnError(err)
		for _, msg := range resp.Messages {
			fmt.Printf("[%s/%s] %s -> %s: %s\n", shortID(msg.ThreadID), msg.MessageID, msg.From, strings.Join(msg.To, ","), msg.Subject)
		}

	case "thread":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: sandbox-client thread <thread_id>")
			os.Exit(1)
		}
		resp, err := client.Thread(os.Args[2])
		exitOnError(err)
		fmt.Printf("%s (%s)\n", resp.Subject, resp.ThreadID)
		for _, msg := range resp.Messages {
			fmt.Printf("  #%s %s: %s\n", msg.MessageID, msg.From, msg.Body)
		}

	case "message":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: sandbox-client message <id> [thread_id]")
			os.Exit(1)
		}
		threadID := ""
		if len(os.Args) > 3 {
			threadID = os.Args[3]
		}
		resp, err := client.Message(os.Args[2], threadID, "")
		exitOnError(err)
		printJSON(resp)

	case "sent":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: sandbox-client sent <agent>")
			os.Exit(1)
		}
		resp, err := client.SentBy(os.Args[2], "", 20)
		exitOnError(err)
		for _, msg := range resp.Messages {
			fmt.Printf("[%s/%s] to %s: %s\n", shortID(msg.ThreadID), msg.MessageID, strings.Join(msg.To, ","), msg.Subject)
		}

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`Sandbox CLI - disposable email networks for agent groups

Usage: sandbox-client <command> [options]

Commands:
  identity <group> <address>        Save default group and address
  create-group <id> <agents>        Create a group (agents comma-separated)
  groups                            List groups
  write <to> <subject> <body>       Send a message (to comma-separated)
  reply <thread_id> <body>          Reply to the latest message in a thread
  reply-all <thread_id> <body>      Reply to everyone in a thread
  inbox [agent]                     Read an inbox (previews)
  thread <thread_id>                Read a full thread
  message <id> [thread_id]          Read a single message
  sent <agent>                      List messages sent by an agent
  health                            Check server health

Environment:
  SANDBOX_URL      Server URL (default: http://localhost:8080)
  SANDBOX_CONFIG   Config directory (default: ~/.sandbox)`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
