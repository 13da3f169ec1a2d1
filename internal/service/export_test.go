package service

// DedupWindowLen количество ключей в окне в памяти
func DedupWindowLen(w DedupWindow) int {
	return w.(*memoryDedupWindow).Len()
}
