// Package service exposes the address book bridge as a REST API.
package service

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/batch"
	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/config"
	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/model"
	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/provider"
	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/rowstore"
)

// db is a handle to the database.
var db *sqlx.DB

// contacts executes the bridge operations against the row store.
var contacts *provider.Provider

// CreateDatabase initializes and returns a database connection. The
// connection parameters are taken from the configuration.
func CreateDatabase(cfg config.Config) *sql.DB {
	sqlDB, err := sql.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Fatal(err)
	}
	return sqlDB
}

// SetupProvider initializes the sqlx database wrapper and the contact
// provider on top of it. The database argument can be a real database for
// production use or a mock database within unit tests.
func SetupProvider(sqlDB *sql.DB, driverName string) {
	db = sqlx.NewDb(sqlDB, driverName)
	contacts = provider.New(rowstore.NewSQLStore(db))
}

// SetupHttpRouter initializes the REST API router and registers all
// endpoints.
func SetupHttpRouter() *gin.Engine {
	var router *gin.Engine
	if strings.EqualFold(os.Getenv("GIN_LOGGING"), "off") {
		fmt.Println("Turning off HTTP request logging.")
		router = gin.New()
	} else {
		router = gin.Default()
	}
	router.GET("/contacts", findContacts)
	router.POST("/contacts", createContact)
	router.GET("/contacts/count", countContacts)
	router.GET("/contacts/:id", findContactByID)
	router.GET("/contacts/:id/photo", findContactPhoto)
	router.PUT("/contacts/:id", updateContactByID)
	router.DELETE("/contacts/:id", deleteContactByID)
	router.GET("/permission", checkPermission)
	router.POST("/permission/request", requestPermission)
	return router
}

// findContacts responds with a list of contacts as JSON.
//
// Without URL parameters, all contacts are returned, the device owner's own
// profile entry first. The URL parameters 'search', 'phone' and 'email'
// select a filtered listing instead: 'search' matches against display name
// and company, 'phone' against phone numbers, and 'email' against email
// addresses. At most one filter may be given per call.
//
// REST API calls:
//
//	> curl "http://localhost:8080/contacts"
//	> curl "http://localhost:8080/contacts?search=lovelace"
//	> curl "http://localhost:8080/contacts?phone=555"
//	> curl "http://localhost:8080/contacts?email=ada@"
func findContacts(c *gin.Context) {
	search := c.Query("search")
	phone := c.Query("phone")
	email := c.Query("email")
	given := 0
	for _, v := range []string{search, phone, email} {
		if v != "" {
			given++
		}
	}
	if given > 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "at most one of search, phone and email may be given"})
		return
	}

	ctx := c.Request.Context()
	var result []*model.Contact
	var err error
	switch {
	case search != "":
		result, err = contacts.ContactsMatching(ctx, search)
	case phone != "":
		result, err = contacts.ContactsByPhone(ctx, phone)
	case email != "":
		result, err = contacts.ContactsByEmail(ctx, email)
	default:
		result, err = contacts.ListAll(ctx)
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, result)
}

// countContacts responds with the number of contacts in the address book.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/contacts/count"
func countContacts(c *gin.Context) {
	count, err := contacts.Count(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"count": count})
}

// findContactByID locates the contact whose record id matches the id
// parameter of the request URL, then returns that contact as a response.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/contacts/56"
func findContactByID(c *gin.Context) {
	contact, err := contacts.ContactByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	if contact == nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// findContactPhoto streams the stored photo of a contact.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/contacts/56/photo"
func findContactPhoto(c *gin.Context) {
	photo, err := contacts.OpenPhoto(c.Request.Context(), c.Param("id"))
	if err != nil {
		if provider.IsNotFound(err) {
			c.IndentedJSON(http.StatusNotFound, gin.H{"message": "photo not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	defer photo.Close()
	data, err := io.ReadAll(photo)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/jpeg", data)
}

// createContact inserts the contact specified in the request's JSON into the
// address book as one atomic batch. It responds with the full contact data
// as persisted, including the newly assigned record id.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts --request "POST" --include --header "Content-Type: application/json" --data '{"givenName": "Ada", "familyName": "Lovelace", "phoneNumbers": [{"label": "home", "value": "555-1234"}]}'
func createContact(c *gin.Context) {
	var req model.WriteRequest
	if err := c.BindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	contact, err := contacts.AddContact(c.Request.Context(), &req)
	if err != nil {
		abortOnWriteError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, contact)
}

// updateContactByID replaces the stored state of the contact whose raw
// contact id matches the id parameter of the request URL with the submitted
// values and responds with the new version of the contact. Multi-valued
// groups present in the JSON fully replace their stored counterparts;
// omitted groups stay untouched.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --request "PUT" --include --header "Content-Type: application/json" --data '{"givenName": "Ada", "phoneNumbers": []}'
func updateContactByID(c *gin.Context) {
	var req model.WriteRequest
	if err := c.BindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	req.RawContactID = c.Param("id")
	contact, err := contacts.UpdateContact(c.Request.Context(), &req)
	if err != nil {
		abortOnWriteError(c, err)
		return
	}
	if contact == nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// deleteContactByID deletes the contact whose record id matches the id
// parameter of the request URL from the address book.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --request "DELETE"
func deleteContactByID(c *gin.Context) {
	deleted, err := contacts.DeleteContact(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortOnWriteError(c, err)
		return
	}
	if deleted == "" {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"message": "contact deleted", "recordID": deleted})
}

// checkPermission reports whether the address book is accessible.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/permission"
func checkPermission(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{"permission": contacts.CheckPermission(c.Request.Context())})
}

// requestPermission requests address book access and reports the outcome.
//
// Example REST API call:
//
//	> curl http://localhost:8080/permission/request --request "POST"
func requestPermission(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{"permission": contacts.RequestPermission(c.Request.Context())})
}

// abortOnWriteError distinguishes rejected requests from store failures.
// Store failure messages are passed through verbatim.
func abortOnWriteError(c *gin.Context, err error) {
	if errors.Is(err, batch.ErrValidation) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
}
