package engine

import (
	"errors"
	"regexp"
	"strings"
)

// The markers below are scraped from pages owned by the services,
// they must match the services byte for byte.

const (
	scnLoginIncorrect = "Login incorrect."
	scnLoginSuccess   = "<TITLE>SCN [ user:"
	scnLoginAgain     = "Please log in again"
)

var (
	scnResultFrameRegex = regexp.MustCompile(`<FRAME name=headFrm src="([^"]*)">`)
	scnHitCountRegex    = regexp.MustCompile(`<b>hit count&nbsp;</b>[^0-9]*([0-9]+) \( ([0-9.]+) / 1M \)`)
)

const (
	bncNoMatches      = "There are no matches for your query"
	bncAuthRequired   = "Authorization Required"
	bncZeroHits       = "0"
	bncZeroPerMillion = "0"
)

var bncHitCountRegex = regexp.MustCompile(`returned ([0-9]+) hit.* frequency: ([0-9.]+) instances per million`)

var (
	errMarkerNotFound = errors.New("result marker not found")
	errSessionExpired = errors.New("session expired")
	errBadCredentials = errors.New("bad user/password")
	errLoginRejected  = errors.New("login page did not confirm the session")
)

// scnResultFrameUrl finds the url of the result page in the page returned by
// the query form. A page that asks to log in again means the session expired.
func scnResultFrameUrl(body string) (string, error) {
	groups := scnResultFrameRegex.FindStringSubmatch(body)
	if len(groups) < 2 {
		if strings.Contains(body, scnLoginAgain) {
			return "", errSessionExpired
		}
		return "", errMarkerNotFound
	}
	return groups[1], nil
}

func scnHitCount(body string) (hitCount, perMillion string, err error) {
	groups := scnHitCountRegex.FindStringSubmatch(body)
	if len(groups) < 3 {
		return "", "", errMarkerNotFound
	}
	return groups[1], groups[2], nil
}

// scnLoginStatus checks the page returned by the login form.
func scnLoginStatus(body string) error {
	if strings.Contains(body, scnLoginIncorrect) {
		return errBadCredentials
	}
	if !strings.Contains(body, scnLoginSuccess) {
		return errLoginRejected
	}
	return nil
}

// bncHitCount reads the frequency off a result page, a page that reports
// no matches is a valid zero result.
func bncHitCount(body string) (hitCount, perMillion string, err error) {
	if strings.Contains(body, bncNoMatches) {
		return bncZeroHits, bncZeroPerMillion, nil
	}
	groups := bncHitCountRegex.FindStringSubmatch(body)
	if len(groups) < 3 {
		return "", "", errMarkerNotFound
	}
	return groups[1], groups[2], nil
}
