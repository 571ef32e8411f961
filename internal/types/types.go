package types

// Candidate is a rotor-setting triple whose decoding contains the searched fragment.
type Candidate struct {
	Setting1 int    `msgpack:"s1" json:"setting1"`
	Setting2 int    `msgpack:"s2" json:"setting2"`
	Setting3 int    `msgpack:"s3" json:"setting3"`
	Decoded  string `msgpack:"decoded" json:"decoded"`
}

// Less orders candidates by setting1, then setting2, then setting3.
func (c Candidate) Less(o Candidate) bool {
	if c.Setting1 != o.Setting1 {
		return c.Setting1 < o.Setting1
	}
	if c.Setting2 != o.Setting2 {
		return c.Setting2 < o.Setting2
	}
	return c.Setting3 < o.Setting3
}

// ShardRequest asks a worker to try every triple with the given first setting.
type ShardRequest struct {
	Ciphertext  string `msgpack:"ciphertext"`
	Fragment    string `msgpack:"fragment"`
	Setting1    int    `msgpack:"s1"`
	Fingerprint uint64 `msgpack:"fingerprint"`
}

// ShardResponse carries a worker's matches for one shard.
type ShardResponse struct {
	Setting1   int         `msgpack:"s1"`
	Candidates []Candidate `msgpack:"candidates"`
	Tried      int         `msgpack:"tried"`
	Worker     string      `msgpack:"worker"`
	Mismatch   bool        `msgpack:"mismatch,omitempty"`
	Error      string      `msgpack:"error,omitempty"`
}

// ConvertRequest is the body of POST /convert.
type ConvertRequest struct {
	Text     string `json:"text"`
	Settings [3]int `json:"settings"`
}

type ConvertResponse struct {
	Output string `json:"output"`
}

// CrackRequest is the body of POST /crack.
type CrackRequest struct {
	Ciphertext string `json:"ciphertext"`
	Fragment   string `json:"fragment"`
}

type CrackResponse struct {
	Candidates []Candidate `json:"candidates"`
	Count      int         `json:"count"`
	Tried      int         `json:"tried"`
	ElapsedMS  int64       `json:"elapsed_ms"`
}

// MachineInfo describes the tables a server runs with.
type MachineInfo struct {
	Rotors      []string `json:"rotors"`
	Reflector   string   `json:"reflector"`
	Fingerprint string   `json:"fingerprint"`
}
