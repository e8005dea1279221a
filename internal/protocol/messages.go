package protocol

import "thestreet.dev/internal/geom"

// Client -> server payloads.

type ClientAuth struct {
	Pubkey        string `json:"pubkey"`
	ChallengeSig  string `json:"challenge_sig"`
	ClientVersion string `json:"client_version"`
}

type ClientMove struct {
	Dir string `json:"dir"`
}

type ClientChat struct {
	Scope  string `json:"scope,omitempty"` // local (default) | whisper | room
	Text   string `json:"text"`
	Target string `json:"target,omitempty"` // whisper recipient
}

type ClientCommand struct {
	Name string   `json:"name"`
	Args []string `json:"args"`
}

type ClientRoomAccessUpdate struct {
	RoomID string   `json:"room_id"`
	Mode   string   `json:"mode"` // open | whitelist | blacklist
	List   []string `json:"list"`
}

type ClientHeartbeat struct {
	Nonce string `json:"nonce"`
}

// Server -> client payloads.

type DevFeeConfig struct {
	Mode  string `json:"mode"` // bps | percent
	Value uint32 `json:"value"`
}

type ServerHello struct {
	ServerVersion string       `json:"server_version"`
	Challenge     string       `json:"challenge"`
	FeeConfig     DevFeeConfig `json:"fee_config"`
	RoomPrice     string       `json:"room_price"`
	UsernameFee   string       `json:"username_fee"`
}

type ServerWelcome struct {
	ClientID    string        `json:"client_id"`
	DisplayName string        `json:"display_name,omitempty"`
	Position    geom.Position `json:"position"`
	SessionID   string        `json:"session_id"`
}

type ServerState struct {
	Position geom.Position `json:"position"`
}

type ServerMapChange struct {
	MapID    string        `json:"map_id"`
	Position geom.Position `json:"position"`
}

type ServerChat struct {
	From        string `json:"from"`
	DisplayName string `json:"display_name,omitempty"`
	Text        string `json:"text"`
	Scope       string `json:"scope"`
	RoomID      string `json:"room_id,omitempty"`
}

type NearbyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
}

type ServerNearby struct {
	Users []NearbyUser `json:"users"`
}

type TrainInfo struct {
	ID        int     `json:"id"`
	X         float64 `json:"x"`
	Clockwise bool    `json:"clockwise"`
}

type ServerTrainState struct {
	Trains []TrainInfo `json:"trains"`
}

type WhoUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

type ServerWho struct {
	Users []WhoUser `json:"users"`
}

type AccessPolicy struct {
	Mode string   `json:"mode"`
	List []string `json:"list"`
}

type ServerRoomInfo struct {
	RoomID      string       `json:"room_id"`
	Owner       string       `json:"owner,omitempty"`
	Price       string       `json:"price"`
	ForSale     bool         `json:"for_sale"`
	Access      AccessPolicy `json:"access"`
	DisplayName string       `json:"display_name,omitempty"`
	DoorColor   string       `json:"door_color,omitempty"`
}

type ServerTxUpdate struct {
	TxID          string `json:"tx_id"`
	Status        string `json:"status"` // pending | confirmed | failed
	Confirmations uint32 `json:"confirmations"`
}

type ServerError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ServerNotice struct {
	Text string `json:"text"`
}

type ServerHeartbeat struct {
	Nonce string `json:"nonce"`
}
