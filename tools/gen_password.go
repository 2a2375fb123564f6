package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// 生成 bcrypt 密码哈希，用于手工修数据
func main() {
	password := "Demo123456"
	if len(os.Args) > 1 {
		password = os.Args[1]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("生成失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("原始密码: %s\n", password)
	fmt.Printf("bcrypt哈希: %s\n", string(hash))
}
