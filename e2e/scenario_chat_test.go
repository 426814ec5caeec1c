package e2e

import (
	"chat-relay/client"
	"chat-relay/domain/chat"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type testChatSuite struct {
	BaseSuite
}

func TestChatSuite(t *testing.T) {
	suite.Run(t, &testChatSuite{})
}

func (s *testChatSuite) TestFullChatFlow() {
	alice, _ := s.NewClient()
	bob, bobScreen := s.NewClient()
	bobAddress := s.FreeAddress()

	s.Step("Step 1: both users log in", func() {
		s.Require().Equal(chat.ReplyLoggedIn, s.Execute(alice, "!login alice.vienna.at 12345"))
		s.Require().Equal(chat.ReplyLoggedIn, s.Execute(bob, "!login bob.vienna.at 23456"))
		s.Require().Equal(chat.ReplyAlreadyLoggedIn, s.Execute(bob, "!login bob.vienna.at 23456"))
	})

	s.Step("Step 2: online list over the datagram endpoint", func() {
		list := s.Execute(alice, "!list")
		s.Require().Equal("Username: alice.vienna.at | online\nUsername: bob.vienna.at | online", list)
	})

	s.Step("Step 3: a broadcast reaches bob only", func() {
		s.Require().Equal(chat.ReplyMessageSent, s.Execute(alice, "!send hello everyone"))
		s.Require().Eventually(func() bool {
			return slices.Contains(bobScreen.Lines(), "!public: alice.vienna.at: hello everyone")
		}, s.Config.StepTimeout, 10*time.Millisecond)
		s.Require().Equal("alice.vienna.at: hello everyone", s.Execute(bob, "!lastMsg"))
		s.Require().Equal(chat.ReplyNoMessage, s.Execute(alice, "!lastMsg"))
	})

	s.Step("Step 4: bob registers his private address across two zones", func() {
		s.Require().Equal(chat.ReplyRegistered("bob.vienna.at"), s.Execute(bob, "!register "+bobAddress))
		s.Require().Equal(bobAddress, s.Execute(alice, "!lookup bob.vienna.at"))
		s.Require().Equal(chat.ReplyNoAddress, s.Execute(bob, "!lookup alice.vienna.at"))
		s.Require().Equal(chat.ReplyNoSuchDomain, s.Execute(bob, "!lookup carol.berlin.de"))
	})

	s.Step("Step 5: alice messages bob directly", func() {
		s.Require().Equal(chat.ReplyPeerAck("bob.vienna.at"), s.Execute(alice, "!msg bob.vienna.at see you at noon"))
		s.Require().Contains(bobScreen.Lines(), "alice.vienna.at: see you at noon")
	})

	s.Step("Step 6: the address outlives bob's session", func() {
		s.Require().Equal(chat.ReplyLoggedOut, s.Execute(bob, "!logout"))
		s.Require().Equal(bobAddress, s.Execute(alice, "!lookup bob.vienna.at"))
		s.Require().Equal("Username: alice.vienna.at | online", s.Execute(alice, "!list"))
	})

	s.Step("Step 7: both clients exit", func() {
		for _, c := range []*client.Client{alice, bob} {
			s.Require().Equal(client.ReplyShuttingDown, s.Execute(c, "!exit"))
			select {
			case <-c.Done():
			case <-time.After(s.Config.StepTimeout):
				s.Fail("client still connected")
			}
		}
		s.Require().Eventually(func() bool {
			return s.Broker.Stats().Online == 0 && s.Broker.Stats().Sessions == 0
		}, s.Config.StepTimeout, 10*time.Millisecond)
	})
}
