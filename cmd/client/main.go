package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"gitlab.com/dirk.krummacker/addressbook-bridge/pkg/model"
)

const serverPort = 8080

// This client exercises the bridge API end to end: it creates a contact,
// fetches and searches it, replaces its phone numbers, and deletes it again.
//
// Usage example on the command line:
// > go run main.go
func main() {
	created := create()
	fmt.Printf("created contact %s (%s %s)\n", created.RecordID, created.GivenName, created.FamilyName)

	fetched := get(created.RecordID)
	fmt.Printf("fetched contact %s with %d phone number(s)\n", fetched.RecordID, len(fetched.PhoneNumbers))

	matches := search("Lovelace")
	fmt.Printf("search found %d contact(s)\n", len(matches))

	updated := update(created)
	fmt.Printf("updated contact %s now has %d phone number(s)\n", updated.RecordID, len(updated.PhoneNumbers))

	remove(created.RecordID)
	fmt.Printf("deleted contact %s\n", created.RecordID)
}

func create() model.Contact {
	body := []byte(`{
		"givenName": "Ada",
		"familyName": "Lovelace",
		"company": "Analytical Engines Ltd",
		"phoneNumbers": [{"label": "home", "value": "555-1234"}],
		"emailAddresses": [{"label": "math", "value": "ada@example.com"}],
		"birthday": {"year": 1815, "month": 12, "day": 10}
	}`)
	res := send(http.MethodPost, fmt.Sprintf("http://localhost:%d/contacts", serverPort), bytes.NewReader(body))
	var contact model.Contact
	unmarshal(res, &contact)
	return contact
}

func get(id string) model.Contact {
	res := send(http.MethodGet, fmt.Sprintf("http://localhost:%d/contacts/%s", serverPort, id), nil)
	var contact model.Contact
	unmarshal(res, &contact)
	return contact
}

func search(text string) []model.Contact {
	res := send(http.MethodGet, fmt.Sprintf("http://localhost:%d/contacts?search=%s", serverPort, text), nil)
	var found []model.Contact
	unmarshal(res, &found)
	return found
}

func update(contact model.Contact) model.Contact {
	body := []byte(`{
		"recordID": "` + contact.RecordID + `",
		"givenName": "Ada",
		"familyName": "Lovelace",
		"phoneNumbers": [
			{"label": "home", "value": "555-1234"},
			{"label": "work", "value": "555-9876"}
		]
	}`)
	url := fmt.Sprintf("http://localhost:%d/contacts/%s", serverPort, contact.RawContactID)
	res := send(http.MethodPut, url, bytes.NewReader(body))
	var updated model.Contact
	unmarshal(res, &updated)
	return updated
}

func remove(id string) {
	send(http.MethodDelete, fmt.Sprintf("http://localhost:%d/contacts/%s", serverPort, id), nil)
}

func send(method string, url string, body io.Reader) []byte {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		fmt.Println("could not create request", err)
		panic(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("error making http request", err)
		panic(err)
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		fmt.Println("could not read response body", err)
		panic(err)
	}
	return resBody
}

func unmarshal(data []byte, target any) {
	if err := json.Unmarshal(data, target); err != nil {
		fmt.Println("could not unmarshal JSON", err)
		panic(err)
	}
}
