package mail

type OutboundEmail struct {
	To      string
	Subject string
	Body    string
	HTML    bool
	LeadID  *string
}
