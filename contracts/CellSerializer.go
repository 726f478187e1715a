package contracts

type CellSerializer interface {
	Marshal(cellId string, contents string) []byte
	Unmarshal([]byte) (cellId string, contents string, err error)
}
