package response

// Detail is the body shape for messages and errors: {"detail": "..."}.
type Detail struct {
	Detail string `json:"detail"`
}

func Message(msg string) Detail {
	return Detail{Detail: msg}
}
