// Package main provides the player CLI for exercising the server API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
)

var (
	app    = kingpin.New("cloudbox-playercli", "cloudbox player client for testing")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	user   = app.Flag("user", "User ID").Required().String()
	token  = app.Flag("token", "Catalog auth token").Envar("CLOUDBOX_AUTH_TOKEN").String()

	// play command
	playCmd    = app.Command("play", "Start a new session")
	playSource = playCmd.Flag("source", "Session source (favorites, stream, playlist)").String()
	playQuery  = playCmd.Flag("query", "Free-text track search").String()

	nextCmd     = app.Command("next", "Play the next track")
	previousCmd = app.Command("previous", "Play the previous track")
	currentCmd  = app.Command("current", "Show the current track and resume offset")
	restartCmd  = app.Command("restart", "Start over from the top of the queue")
	likeCmd     = app.Command("like", "Like the current track")
	followCmd   = app.Command("follow", "Follow the current track's artist")

	loopCmd = app.Command("loop", "Enable or disable looping")
	loopOn  = loopCmd.Arg("state", "on or off").Required().Enum("on", "off")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	var status int
	var body []byte

	switch command {
	case playCmd.FullCommand():
		status, body = call(http.MethodPost, "session", map[string]string{
			"source": *playSource,
			"query":  *playQuery,
		})
	case nextCmd.FullCommand():
		status, body = call(http.MethodPost, "next", nil)
	case previousCmd.FullCommand():
		status, body = call(http.MethodPost, "previous", nil)
	case currentCmd.FullCommand():
		status, body = call(http.MethodGet, "current", nil)
	case restartCmd.FullCommand():
		status, body = call(http.MethodPost, "restart", nil)
	case likeCmd.FullCommand():
		status, body = call(http.MethodPost, "likes", nil)
	case followCmd.FullCommand():
		status, body = call(http.MethodPost, "followings", nil)
	case loopCmd.FullCommand():
		status, body = call(http.MethodPut, "loop", map[string]bool{
			"enabled": *loopOn == "on",
		})
	}

	switch {
	case status == http.StatusNoContent:
		fmt.Println("Nothing to play (or done).")
	case status >= 400:
		fmt.Printf("Error (%d): %s\n", status, body)
		os.Exit(1)
	default:
		fmt.Println(string(body))
	}
}

// call performs one API request against the server.
func call(method, op string, payload any) (int, []byte) {
	url := fmt.Sprintf("%s/v1/users/%s/%s", *server, *user, op)

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	if *token != "" {
		req.Header.Set("X-Auth-Token", *token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return resp.StatusCode, body
}
