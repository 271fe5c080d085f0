package nextpm

// Checksum 计算 NextPM 简单协议校验和：
// 对 [0,end) 字节做 8 位累加（溢出丢弃高位），结果取 (0x100 - sum) & 0xFF。
// excludeLast 为 true 时不计入最后一个字节（即帧尾的校验字节本身）。
func Checksum(b []byte, excludeLast bool) byte {
	end := len(b)
	if excludeLast && end > 0 {
		end--
	}
	var sum byte
	for _, v := range b[:end] {
		sum += v
	}
	return -sum
}

// VerifyChecksum 校验帧尾字节，返回期望值、实际值与是否一致
func VerifyChecksum(frame []byte) (expected, actual byte, ok bool) {
	if len(frame) == 0 {
		return 0, 0, false
	}
	expected = Checksum(frame, true)
	actual = frame[len(frame)-1]
	return expected, actual, expected == actual
}
