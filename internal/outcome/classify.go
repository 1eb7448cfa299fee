package outcome

// Result codes a server puts in the first slot of a response.
const (
	CodeOK               = "ok"
	CodeNoTokenAvailable = "noTokenAvailable"
)

// Response is the raw response envelope returned by the RPC collaborator.
type Response struct {
	ResultCode    string
	ResultPayload []string
}

// ClassifyToken maps a token-fetch response:
//
//	OK + payload[0]     -> TokenRetrieved(payload[0])
//	OK + empty payload  -> EmptyResponse
//	noTokenAvailable    -> TokenUnavailable
//	anything else       -> ServerUnavailable
//
// A nil response is EmptyResponse.
func ClassifyToken(resp *Response) Outcome {
	if resp == nil {
		return Outcome{Kind: EmptyResponse, Operation: OpToken}
	}
	switch resp.ResultCode {
	case CodeOK:
		if len(resp.ResultPayload) == 0 {
			return Outcome{Kind: EmptyResponse, Operation: OpToken}
		}
		return Outcome{Kind: TokenRetrieved, Operation: OpToken, Token: resp.ResultPayload[0]}
	case CodeNoTokenAvailable:
		return Outcome{Kind: TokenUnavailable, Operation: OpToken}
	default:
		return Outcome{Kind: ServerUnavailable, Operation: OpToken}
	}
}

// Classify maps a response of a call that carries no token: OK with at
// least one payload element is Succeeded, otherwise the same rules as
// ClassifyToken apply.
func Classify(op Operation, resp *Response) Outcome {
	o := ClassifyToken(resp)
	o.Operation = op
	if o.Kind == TokenRetrieved {
		o.Kind = Succeeded
		o.Token = ""
	}
	return o
}

// ClassifyAck maps an acknowledgement: OK is Succeeded regardless of payload.
func ClassifyAck(op Operation, resp *Response) Outcome {
	if resp != nil && resp.ResultCode == CodeOK {
		return Outcome{Kind: Succeeded, Operation: op}
	}
	return Classify(op, resp)
}
