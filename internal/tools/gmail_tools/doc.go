// Package gmail_tools implements the email half of the tool surface:
// listing, reading, searching, drafting replies, and sending mail through
// the user's Gmail account.
package gmail_tools
