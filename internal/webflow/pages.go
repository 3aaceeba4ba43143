package webflow

import (
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

var resultTemplate = template.Must(template.ParseFS(templateFS, "templates/result.html"))

type page struct {
	Lang       string
	Title      string
	Heading    string
	Message    string
	Success    bool
	RetryURL   string
	RetryLabel string
}

var failureMessages = map[string]string{
	"vpn_or_proxy":      "A VPN or proxy was detected. Disconnect it and try again.",
	"account_age":       "Your Discord account is too new to be verified. Please try again in a few days.",
	"duplicate_account": "Another account was verified from the same network. Check your Discord DM for details.",
	"duplicate_ip":      "Another verification came from the same network within a week. Check your Discord DM for details.",
}

func successPage() page {
	return page{
		Lang:    "en",
		Title:   "Verification Success",
		Heading: "Success!",
		Message: "Your account has been verified. You may close this page or return to Discord.",
		Success: true,
	}
}

func failurePage(reason string) page {
	message, ok := failureMessages[reason]
	if !ok {
		message = "Unfortunately, we could not verify your account. Please check your Discord DM for details."
	}
	return page{
		Lang:    "en",
		Title:   "Verification Failed",
		Heading: "Failed!",
		Message: message,
	}
}

func sessionExpiredPage() page {
	return page{
		Lang:       "en",
		Title:      "Session expired",
		Heading:    "Session expired",
		Message:    "Your login session is missing or has expired.",
		RetryURL:   "/",
		RetryLabel: "Sign in with Discord again",
	}
}

func render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = resultTemplate.Execute(w, p)
}
