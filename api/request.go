package api

// GradeReq asks for one repository to be graded.
type GradeReq struct {
	RunUuid string `json:"run_uuid"`

	// Repo is a local directory or a git clone URL.
	Repo string `json:"repo"`
	// Student overrides the id derived from the environment.
	Student string `json:"student,omitempty"`

	ResSqsUrl string `json:"res_sqs_url,omitempty"`
}
