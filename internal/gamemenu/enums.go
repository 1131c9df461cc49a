package gamemenu

// NodeType selects which runtime nodes the in-game picker targets. Values are the ordinals
// carried on the wire.
type NodeType int32

const (
	NodeTypeNone NodeType = iota
	NodeType2D
	NodeType3D
)

func (t NodeType) String() string {
	switch t {
	case NodeType2D:
		return "2d"
	case NodeType3D:
		return "3d"
	default:
		return "none"
	}
}

type SelectMode int32

const (
	SelectSingle SelectMode = iota
	SelectList
)

func (m SelectMode) String() string {
	if m == SelectList {
		return "list"
	}
	return "single"
}

type CameraMode int32

const (
	CameraNone CameraMode = iota
	CameraInGame
	CameraEditors
)

func (m CameraMode) String() string {
	switch m {
	case CameraInGame:
		return "in-game"
	case CameraEditors:
		return "editors"
	default:
		return "none"
	}
}
