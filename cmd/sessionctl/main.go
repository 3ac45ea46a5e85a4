// Package main provides an operator tool for inspecting stored sessions.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/osa030/cloudbox/internal/infra/store"
)

var (
	app    = kingpin.New("cloudbox-sessionctl", "cloudbox session store inspector")
	dbPath = app.Flag("db", "Path to the session database").Default("cloudbox.db").String()

	listCmd = app.Command("list", "List users with a stored session")

	showCmd  = app.Command("show", "Show a user's playback state")
	showUser = showCmd.Arg("user", "User ID").Required().String()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	s, err := store.Open(*dbPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	ctx := context.Background()

	switch command {
	case listCmd.FullCommand():
		users, err := s.Users(ctx)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		for _, u := range users {
			fmt.Println(u)
		}

	case showCmd.FullCommand():
		st, err := s.Get(ctx, *showUser)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		out, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
	}
}
