// Package main provides the SoundCloud authentication tool.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"golang.org/x/oauth2"
)

var (
	app          = kingpin.New("cloudbox-auth", "SoundCloud authentication tool for cloudbox")
	clientID     = app.Flag("client-id", "SoundCloud Client ID").Envar("SOUNDCLOUD_CLIENT_ID").Required().String()
	clientSecret = app.Flag("client-secret", "SoundCloud Client Secret").Envar("SOUNDCLOUD_CLIENT_SECRET").Required().String()
	port         = app.Flag("port", "Callback server port").Default("8888").Int()

	conf  *oauth2.Config
	ch    = make(chan *oauth2.Token)
	state = "cloudbox-auth-state"
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	conf = &oauth2.Config{
		ClientID:     *clientID,
		ClientSecret: *clientSecret,
		RedirectURL:  fmt.Sprintf("http://127.0.0.1:%d/callback", *port),
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://soundcloud.com/connect",
			TokenURL: "https://api.soundcloud.com/oauth2/token",
		},
	}

	// Start HTTP server for the callback
	http.HandleFunc("/callback", completeAuth)

	server := &http.Server{Addr: fmt.Sprintf(":%d", *port)}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	url := conf.AuthCodeURL(state)
	fmt.Println("Please visit the following URL to authorize cloudbox:")
	fmt.Println("")
	fmt.Println(url)
	fmt.Println("")
	fmt.Println("Waiting for authorization...")

	token := <-ch

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown server: %v", err)
	}

	fmt.Println("")
	fmt.Println("=== Authorization Successful ===")
	fmt.Println("")
	fmt.Println("Access Token:")
	fmt.Println(token.AccessToken)
	fmt.Println("")
	fmt.Println("Pass this token in the X-Auth-Token header for user-bound calls:")
	fmt.Printf("export CLOUDBOX_AUTH_TOKEN=\"%s\"\n", token.AccessToken)
}

func completeAuth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("state") != state {
		http.Error(w, "State mismatch", http.StatusForbidden)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	token, err := conf.Exchange(r.Context(), code)
	if err != nil {
		http.Error(w, "Failed to get token", http.StatusForbidden)
		log.Printf("Failed to get token: %v", err)
		return
	}

	fmt.Fprintln(w, "Authorization complete. You can close this window.")
	ch <- token
}
