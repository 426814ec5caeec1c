package chat

import (
	"fmt"
	"strings"
)

// Texts exchanged between broker and client. The client matches some of
// them to tell a diagnostic apart from a successful result.
const (
	ReplyLoggedIn            = "Successfully logged in."
	ReplyWrongCredentials    = "Wrong username or password."
	ReplyAlreadyLoggedIn     = "You are already logged in!"
	ReplyLoggedOut           = "Successfully logged out."
	ReplyNotLoggedIn         = "You are not logged in!"
	ReplyLoginRequired       = "You must log in first!"
	ReplyMessageSent         = "Message sent successfully!"
	ReplyNoMessage           = "No message received."
	ReplyAlreadyRegistered   = "This address is already registered."
	ReplyInvalidDomain       = "This domain is not valid."
	ReplyRegisterUnreachable = "Address cannot be registered: Cannot communicate with the nameserver"
	ReplyInvalidAddress      = "Please give the address of form IP:Port"
	ReplyNoSuchDomain        = "No such domain."
	ReplyNoAddress           = "User does not have a registered address."
	ReplyLookupUnreachable   = "Could not lookup the address: Cannot communicate with the nameserver"
	ReplyUnknownCommand      = "Unknown command."
	ReplyBye                 = "Bye."
	ReplyNoOnlineUsers       = "There are no online users."
	ReplyListError           = "!error provided command is not !list"
	ReplyTampered            = "Your message was tampered by a third user."
)

const registeredPrefix = "Successfully registered address for "

func ReplyRegistered(username string) string {
	return registeredPrefix + username + "."
}

// IsRegistered tells a successful !register reply from a diagnostic.
func IsRegistered(reply string) bool {
	return strings.HasPrefix(reply, registeredPrefix)
}

func ReplyPeer(username, payload string) string {
	return fmt.Sprintf("%s replied with %s.", username, payload)
}

func ReplyPeerAck(username string) string {
	return ReplyPeer(username, PeerAck)
}
