package googlephotos

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	appendOnlyScope  = "https://www.googleapis.com/auth/photoslibrary.appendonly"
	readAppDataScope = "https://www.googleapis.com/auth/photoslibrary.readonly.appcreateddata"
	editAppDataScope = "https://www.googleapis.com/auth/photoslibrary.edit.appcreateddata"
)

// Credentials configures OAuth2 access to the Google Photos API. TokenFile is
// where the obtained token is cached between runs.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	TokenFile    string
}

func (c Credentials) oauthConfig() (*oauth2.Config, error) {
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, fmt.Errorf("google Photos ClientId or ClientSecret not configured")
	}
	redirectURI := c.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:8080"
		fmt.Printf("Warning: google_photos.redirect_uri not set in config, using default: %s\n", redirectURI)
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			appendOnlyScope,  // uploading new media and creating albums
			readAppDataScope, // reading our app's media items and albums
			editAppDataScope, // editing our app's media items and albums
		},
		Endpoint: google.Endpoint,
	}, nil
}

// NewAuthenticatedHTTPClient returns an HTTP client authorized against the
// Google Photos API. A cached token is used when present and valid; otherwise
// the web auth flow runs and the new token is cached.
func NewAuthenticatedHTTPClient(ctx context.Context, creds Credentials) (*http.Client, error) {
	conf, err := creds.oauthConfig()
	if err != nil {
		return nil, err
	}

	token, err := loadToken(creds.TokenFile)
	if err != nil {
		return nil, err
	}
	if token == nil || !token.Valid() {
		if token == nil {
			fmt.Println("No existing OAuth token found, starting auth flow...")
		} else {
			fmt.Println("OAuth token is invalid (eg, expired), starting auth flow...")
		}
		token, err = getTokenFromWeb(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err := saveToken(creds.TokenFile, token); err != nil {
			// The in-memory token is still usable for this run.
			fmt.Printf("Warning: Failed to save token to %s: %v\n", creds.TokenFile, err)
		} else {
			fmt.Printf("Token obtained and saved successfully to %s\n", creds.TokenFile)
		}
	}

	return conf.Client(ctx, token), nil
}

// Authorize runs the web auth flow unconditionally and caches the resulting
// token, replacing any existing one.
func Authorize(ctx context.Context, creds Credentials) error {
	conf, err := creds.oauthConfig()
	if err != nil {
		return err
	}
	token, err := getTokenFromWeb(ctx, conf)
	if err != nil {
		return err
	}
	if err := saveToken(creds.TokenFile, token); err != nil {
		return err
	}
	fmt.Printf("Token obtained and saved successfully to %s\n", creds.TokenFile)
	return nil
}

func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open token file %s: %w", path, err)
	}
	defer f.Close()
	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		fmt.Printf("Error reading token file (%s), requesting new token: %v\n", path, err)
		return nil, nil
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// getTokenFromWeb guides the user through the web-based OAuth2 flow via a
// local callback server.
func getTokenFromWeb(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	u, err := url.Parse(conf.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("bad redirect URL: %w", err)
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	l, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to start local server for auth: %w", err)
	}
	defer l.Close()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			if r.URL.Path != "/favicon.ico" {
				fmt.Printf("Warning: Code not found in request (path: %s)\n", r.URL.Path)
			}
			http.Error(w, "Code not found in response", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Albumsync Authentication Successful</h1><p>You can close this window now and return to the terminal.</p></body></html>`)

		codeCh <- code
	})

	server := &http.Server{Handler: handler}

	go func() {
		if err := server.Serve(l); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	authURL := conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Opening browser to complete authentication:\n%s\n", authURL)

	go openBrowser(authURL)

	fmt.Println("Waiting for authentication callback...")

	select {
	case code := <-codeCh:
		go server.Shutdown(context.Background())

		tok, err := conf.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from web exchange: %w", err)
		}
		return tok, nil

	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// openBrowser attempts to open the specified URL in the default browser.
func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}
	if err != nil {
		fmt.Printf("Could not open browser automatically: %v\nPlease open the URL manually.\n", err)
	}
}
